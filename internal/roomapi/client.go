// Package roomapi is the request/response client for room creation and
// lookup. The transport-level room API is an external collaborator; this
// client only speaks its {success, data, message} envelope.
package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

// RoomData is the room descriptor returned by create and fetch calls.
type RoomData struct {
	RoomID     string             `json:"roomId"`
	Role       wire.Role          `json:"role"`
	Word       string             `json:"word,omitempty"`
	WordLength int                `json:"wordLength"`
	Players    []wire.Player      `json:"players"`
	Riddler    string             `json:"riddler,omitempty"`
	Round      int                `json:"round"`
	Chats      []wire.ChatMessage `json:"chats,omitempty"`
}

type CreateRoomPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
	Mode     string `json:"mode,omitempty"` // "global" | "private"
}

// Error is a non-success envelope from the API, carrying the server's
// displayable message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("room api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("room api: request failed (status %d)", e.Status)
}

// NotFound reports whether the error is a missing room, which callers
// surface as a redirect to the not-found view instead of a notice.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func New(base string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

func (c *Client) CreateRoom(ctx context.Context, payload CreateRoomPayload) (RoomData, error) {
	var room RoomData
	err := c.do(ctx, http.MethodPost, "/api/createroom", payload, &room)
	return room, err
}

func (c *Client) RoomInfo(ctx context.Context, roomID, username string) (RoomData, error) {
	path := "/api/rooms/" + url.PathEscape(roomID)
	if username != "" {
		path += "?username=" + url.QueryEscape(username)
	}
	var room RoomData
	err := c.do(ctx, http.MethodGet, path, nil, &room)
	return room, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &Error{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
