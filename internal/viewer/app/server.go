package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/engine/wsclient"
	"github.com/arbourlane/vigil/internal/platform/timeouts"
	"github.com/arbourlane/vigil/internal/viewer/store/chat"
	"github.com/arbourlane/vigil/internal/viewer/store/game"
	"github.com/arbourlane/vigil/internal/viewer/store/settings"
	"github.com/arbourlane/vigil/internal/viewer/store/ui"
)

// Config carries the addresses the viewer server needs.
type Config struct {
	// Addr is the local HTTP listen address for the front end.
	Addr string
	// EngineURL is the websocket URL of the game engine.
	EngineURL string
	// EngineOrigin is the origin header sent on the engine dial.
	EngineOrigin string
}

// Server hosts the viewer HTTP API and the engine subscription lifecycle.
type Server struct {
	listener    net.Listener
	httpServer  *http.Server
	client      *wsclient.Client
	unsubscribe func()
}

// New dials the engine, builds the stores, subscribes the dispatcher, and
// binds the local HTTP listener. Initial settings and conversation loads are
// best-effort: a slow or absent engine leaves errors in the stores rather
// than failing startup.
func New(ctx context.Context, cfg Config) (*Server, error) {
	client, err := wsclient.Dial(cfg.EngineURL, cfg.EngineOrigin)
	if err != nil {
		return nil, fmt.Errorf("dial engine at %s: %w", cfg.EngineURL, err)
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	var api engine.API = client
	chatStore := chat.NewStore(api)
	gameStore := game.NewStore(api)
	settingsStore := settings.NewStore(api)
	uiStore := ui.NewStore()

	dispatcher := NewDispatcher(chatStore, gameStore)
	unsubscribe, err := dispatcher.Start(api)
	if err != nil {
		client.Close()
		_ = listener.Close()
		return nil, fmt.Errorf("subscribe to engine events: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, timeouts.InitialLoad)
	defer cancel()
	settingsStore.Load(loadCtx)
	chatStore.LoadSessions(loadCtx)

	h := &handler{
		chat:     chatStore,
		game:     gameStore,
		settings: settingsStore,
		ui:       uiStore,
	}

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           newRouter(h),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		client:      client,
		unsubscribe: unsubscribe,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a viewer server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("viewer server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("viewer: shutdown HTTP server: %v", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// Close releases viewer server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("close engine client: %v", err)
		}
	}
}
