// Command wbwatch joins a whiteboard room and logs what happens in it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bishal292/whiteboard/client"
	"github.com/bishal292/whiteboard/protocol"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/ws", "whiteboard websocket endpoint")
		roomId = flag.String("room", "", "room to join")
		debug  = flag.Bool("debug", false, "log every message")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *roomId == "" {
		logrus.Fatal("-room is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, *url, protocol.JoinRoomData{RoomId: *roomId})
	if err != nil {
		logrus.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{"room_id": *roomId, "connection_id": conn.ConnectionId})
	log.Info("Connected")

	strokes := client.NewStrokeAssembler()
	cursors := client.NewCursorTracker()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-conn.Messages:
			if !ok {
				log.Warn("Connection closed by server")
				return
			}
			log.WithField("type", msg.Type).Debug("Message received")
			handleMessage(log, msg, strokes, cursors)

		case <-ticker.C:
			for _, cursor := range cursors.Active() {
				log.WithFields(logrus.Fields{"peer": cursor.ConnectionId, "x": cursor.X, "y": cursor.Y}).Debug("Cursor")
			}
		}
	}
}

func handleMessage(log *logrus.Entry, msg protocol.Message, strokes *client.StrokeAssembler, cursors *client.CursorTracker) {
	switch msg.Type {
	case protocol.TypeError:
		var data protocol.ErrorData
		json.Unmarshal(msg.Data, &data)
		log.WithField("error", data.Message).Error("Server error")

	case protocol.TypePresenceUpdate:
		var data protocol.PresenceData
		json.Unmarshal(msg.Data, &data)
		log.WithField("members", data.Count).Info("Presence")

	case protocol.TypeCursorMove:
		var data protocol.CursorData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			cursors.Update(data.ConnectionId, data.X, data.Y)
		}

	case protocol.TypeDrawingData, protocol.TypeDrawStart, protocol.TypeDrawMove, protocol.TypeDrawEnd, protocol.TypeClearCanvas:
		if err := strokes.ApplyMessage(msg); err != nil {
			log.WithError(err).Warn("Bad drawing message")
			return
		}
		if msg.Type != protocol.TypeDrawMove {
			log.WithFields(logrus.Fields{"type": msg.Type, "strokes": len(strokes.Strokes())}).Info("Canvas updated")
		}
	}
}
