// ABOUTME: HTTP API over the app: capture, search, records, reminders, history, and export.
// ABOUTME: Routes with gorilla/mux and upgrades /ws to the live notification hub.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/harper/sam/internal/app"
)

type Server struct {
	app      *app.App
	hub      *Hub
	router   *mux.Router
	validate *validator.Validate
	upgrader websocket.Upgrader
	log      *log.Logger
}

func New(a *app.App, logger *log.Logger) *Server {
	s := &Server{
		app:      a,
		hub:      NewHub(logger),
		router:   mux.NewRouter(),
		validate: validator.New(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		log:      logger,
	}
	a.Dispatcher.SetBroadcaster(s.hub)
	s.routes()
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.Use(loggerMiddleware(s.log))

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/process", s.process).Methods(http.MethodPost)
	api.HandleFunc("/search", s.search).Methods(http.MethodPost)

	api.HandleFunc("/records", s.listRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", s.getRecord).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", s.updateRecord).Methods(http.MethodPatch)
	api.HandleFunc("/records/{id}", s.deleteRecord).Methods(http.MethodDelete)
	api.HandleFunc("/records/{id}/items/{index:[0-9]+}/toggle", s.toggleItem).Methods(http.MethodPost)
	api.HandleFunc("/records/{id}/important", s.toggleImportant).Methods(http.MethodPost)
	api.HandleFunc("/records/{id}/reminder", s.setReminder).Methods(http.MethodPut)
	api.HandleFunc("/records/{id}/reminder", s.clearReminder).Methods(http.MethodDelete)
	api.HandleFunc("/tags", s.listTags).Methods(http.MethodGet)

	api.HandleFunc("/export", s.export).Methods(http.MethodGet)
	api.HandleFunc("/import", s.importDocument).Methods(http.MethodPost)

	api.HandleFunc("/notifications", s.listNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.clearNotifications).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/read-all", s.markAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", s.markRead).Methods(http.MethodPost)
	api.HandleFunc("/banners", s.listBanners).Methods(http.MethodGet)
	api.HandleFunc("/banners/{id}", s.dismissBanner).Methods(http.MethodDelete)
}

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := newClient(s.hub, conn)
	if !s.hub.add(c) {
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"records":    s.app.Store.Len(),
		"inference":  s.app.Inference.Configured(),
		"ws_clients": s.hub.ClientCount(),
	})
}
