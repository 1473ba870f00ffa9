package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/scanner"
)

type SessionProvider interface {
	Sessions() []*scanner.Session
	Session(title string) (*scanner.Session, bool)
}

type Authenticator interface {
	Authenticate(username, password string) (models.User, error)
}

type Options struct {
	Secret   string
	Sessions SessionProvider
	Users    Authenticator
}

type handler struct {
	secret   string
	sessions SessionProvider
	users    Authenticator
	upgrader websocket.Upgrader
}

func NewRouter(opts Options) *mux.Router {
	h := &handler{
		secret:   opts.Secret,
		sessions: opts.Sessions,
		users:    opts.Users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint
	}).Methods(http.MethodGet)
	r.HandleFunc("/auth", h.authenticate).Methods(http.MethodPost)

	sessions := r.PathPrefix("/sessions").Subrouter()
	sessions.Use(h.requireToken)
	sessions.HandleFunc("", h.listSessions).Methods(http.MethodGet)
	sessions.HandleFunc("/{title}/state", h.sessionState).Methods(http.MethodGet)
	sessions.HandleFunc("/{title}/picture", h.takePicture).Methods(http.MethodPost)
	sessions.HandleFunc("/{title}/scans", h.listScans).Methods(http.MethodGet)
	sessions.HandleFunc("/{title}/stream", h.streamState).Methods(http.MethodGet)
	return r
}

// Start serves handler on addr in the background.
func Start(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("API server error: %v", err)
		}
	}()

	return srv
}

func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
