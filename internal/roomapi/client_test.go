package roomapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riddlesketch/client/internal/roomapi"
)

func TestClient_CreateRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/createroom", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Ana", req["username"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"roomId":"AB12CD","role":"riddler","word":"castle","wordLength":6,"players":[],"round":1}}`))
	}))
	defer srv.Close()

	c := roomapi.New(srv.URL, nil)
	room, err := c.CreateRoom(context.Background(), roomapi.CreateRoomPayload{Username: "Ana"})
	require.NoError(t, err)
	require.Equal(t, "AB12CD", room.RoomID)
	require.Equal(t, "castle", room.Word)
	require.Equal(t, 6, room.WordLength)
}

func TestClient_RoomInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"room not found"}`))
	}))
	defer srv.Close()

	c := roomapi.New(srv.URL, nil)
	_, err := c.RoomInfo(context.Background(), "NOPE", "Ana")
	require.Error(t, err)

	var apiErr *roomapi.Error
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.NotFound())
	require.Equal(t, "room not found", apiErr.Message)
}

func TestClient_EnvelopeFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":false,"message":"room is full"}`))
	}))
	defer srv.Close()

	c := roomapi.New(srv.URL, nil)
	_, err := c.RoomInfo(context.Background(), "R1", "Ana")

	var apiErr *roomapi.Error
	require.ErrorAs(t, err, &apiErr)
	require.False(t, apiErr.NotFound())
	require.Equal(t, "room is full", apiErr.Message)
}

func TestClient_RoomInfoEscapesUsername(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("username")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"roomId":"R1","role":"guesser","wordLength":5,"players":[],"round":1}}`))
	}))
	defer srv.Close()

	c := roomapi.New(srv.URL, nil)
	_, err := c.RoomInfo(context.Background(), "R1", "a name&b")
	require.NoError(t, err)
	require.Equal(t, "a name&b", gotQuery)
}
