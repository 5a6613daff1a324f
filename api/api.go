package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bishal292/whiteboard/api/rest"
	"github.com/bishal292/whiteboard/api/ws"
	"github.com/bishal292/whiteboard/cache"
	"github.com/bishal292/whiteboard/mq"
	"github.com/bishal292/whiteboard/service"
	"github.com/bishal292/whiteboard/session"
	"github.com/bishal292/whiteboard/store"
	"github.com/bishal292/whiteboard/worker"
)

type WhiteboardAPI struct {
	Engine *session.Engine

	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
	workers     sync.WaitGroup
}

type Options struct {
	RoomRetention         time.Duration
	ActivityFlushInterval time.Duration
}

// NewWhiteboardAPI wires the service, its background workers and the session
// engine. Workers stop when shutdownCtx is done; Wait blocks until they have.
func NewWhiteboardAPI(
	whiteboardStore store.WhiteboardStore,
	roomSessionsQueue mq.MessageQueue,
	whiteboardCache cache.WhiteboardCache,
	opts Options,
	shutdownCtx context.Context,
) *WhiteboardAPI {
	whiteboardAPI := &WhiteboardAPI{shutdownCtx: shutdownCtx}

	activityBatcher := worker.NewActivityBatcher(whiteboardStore, opts.ActivityFlushInterval)
	mqConsumer := worker.NewMQConsumer(roomSessionsQueue, whiteboardCache)

	whiteboardAPI.workers.Add(2)
	go func() {
		defer whiteboardAPI.workers.Done()
		activityBatcher.Run(shutdownCtx)
	}()
	go func() {
		defer whiteboardAPI.workers.Done()
		mqConsumer.Run(shutdownCtx)
	}()

	svc := service.NewService(
		whiteboardStore,
		whiteboardCache,
		roomSessionsQueue,
		activityBatcher,
		opts.RoomRetention,
	)

	engine := session.NewEngine(svc,
		session.WithRoomClosedHook(svc.RoomClosed),
		session.WithAttributeValidator(service.ValidateDrawAttributes),
	)

	whiteboardAPI.Engine = engine
	whiteboardAPI.restHandler = rest.NewHandler(svc)
	whiteboardAPI.wsHandler = ws.NewHandler(engine)
	return whiteboardAPI
}

// Wait blocks until the background workers have stopped, which includes the
// activity batcher's final flush, or until ctx is done.
func (whiteboardAPI *WhiteboardAPI) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		whiteboardAPI.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (whiteboardAPI *WhiteboardAPI) RegisterRoutes(mux *http.ServeMux, allowedOrigin string) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(whiteboardAPI.Engine.Stats())
	})

	mux.Handle("/api/rooms/join", rest.WithCORS(allowedOrigin, http.HandlerFunc(whiteboardAPI.restHandler.HandleJoinRoom)))
	mux.Handle("/api/rooms/{roomId}", rest.WithCORS(allowedOrigin, http.HandlerFunc(whiteboardAPI.restHandler.HandleGetRoom)))

	wsUpgrader := whiteboardAPI.wsHandler.NewWsUpgrader(allowedOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		whiteboardAPI.wsHandler.ServeWS(wsUpgrader, w, r, whiteboardAPI.shutdownCtx)
	})
}
