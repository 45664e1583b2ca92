// riddlesketch is a minimal terminal client: it joins a room, prints the
// transcript as it grows, and sends stdin lines as chat (or guesses, with a
// leading "/guess ").
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/riddlesketch/client/internal/chat"
	"github.com/riddlesketch/client/internal/moderation"
	"github.com/riddlesketch/client/internal/room"
	"github.com/riddlesketch/client/internal/roomapi"
	"github.com/riddlesketch/client/internal/session"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("SERVER_URL", "http://localhost:8080"), "authority base URL")
	roomID := flag.String("room", os.Getenv("ROOM"), "room code (empty: create one)")
	name := flag.String("name", envOr("NAME", "anon"), "display name")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	api := roomapi.New(*server, log)
	if *roomID == "" {
		data, err := api.CreateRoom(ctx, roomapi.CreateRoomPayload{Username: *name})
		if err != nil {
			log.Fatal("create room failed", zap.Error(err))
		}
		*roomID = data.RoomID
		fmt.Printf("created room %s\n", *roomID)
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	sess := session.New(wsURL, log)
	if err := sess.EnsureConnected(ctx); err != nil {
		log.Fatal("connect failed", zap.Error(err))
	}
	defer sess.Close(ctx)

	joinCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	outcome, err := sess.JoinRoom(joinCtx, *roomID, *name)
	cancel()
	if err != nil {
		log.Fatal("join failed", zap.Error(err))
	}
	if !outcome.OK {
		fmt.Printf("join rejected: %s\n", outcome.Reason)
		return
	}

	rec := room.New(sess, log, *roomID, *name)
	defer rec.Detach()
	transcript := chat.New(sess, log, *roomID, *name)
	defer transcript.Detach()
	mod := moderation.New(sess, log, *roomID, *name)

	if err := rec.RequestSnapshot(); err != nil {
		log.Fatal("snapshot request failed", zap.Error(err))
	}

	go printTranscript(transcript)

	fmt.Printf("joined %s as %s. type to chat, /guess <word>, /leave\n", *roomID, *name)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/leave":
			leaveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			outcome, err := mod.Leave(leaveCtx)
			cancel()
			if err != nil {
				fmt.Printf("leave failed: %v\n", err)
				continue
			}
			if !outcome.OK {
				fmt.Printf("leave rejected: %s\n", outcome.Reason)
				continue
			}
			return
		case strings.HasPrefix(line, "/guess "):
			if err := transcript.SendGuess(strings.TrimPrefix(line, "/guess ")); err != nil {
				fmt.Printf("guess failed: %v\n", err)
			}
		default:
			if err := transcript.Send(line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
	}
}

func printTranscript(transcript *chat.Log) {
	seen := 0
	for {
		msgs := transcript.Messages()
		for ; seen < len(msgs); seen++ {
			m := msgs[seen]
			if m.IsSystem {
				fmt.Printf("* %s\n", m.Text)
			} else {
				fmt.Printf("<%s> %s\n", m.Player, m.Text)
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
