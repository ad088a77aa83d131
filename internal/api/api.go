// Package api provides the HTTP surface of leadchat.
//
// It exposes the conversational /chat endpoint plus the dashboard endpoints
// for managing leads, consultations, statistics, and follow-up emails. The
// API wires together the session store, router, persistence, and mail
// modules.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genetech/leadchat/internal/assist"
	"github.com/genetech/leadchat/internal/genai"
	"github.com/genetech/leadchat/internal/mail"
	"github.com/genetech/leadchat/internal/router"
	"github.com/genetech/leadchat/internal/scheduler"
	"github.com/genetech/leadchat/internal/session"
	"github.com/genetech/leadchat/internal/store"
)

// DefaultAddr is the default API listen address.
const DefaultAddr = ":8080"

// Opts holds configuration for the API server.
type Opts struct {
	Addr           string
	SessionTimeout time.Duration
	SweepInterval  time.Duration
	FollowupCron   string
	FollowupAfter  time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSessionTimeout sets how long a chat session may sit idle before the
// evictor removes it.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Opts) { o.SessionTimeout = d }
}

// WithSweepInterval sets how often the session evictor runs.
func WithSweepInterval(d time.Duration) Option {
	return func(o *Opts) { o.SweepInterval = d }
}

// WithFollowupCron enables the scheduled follow-up pass with the given cron
// expression. Empty disables it.
func WithFollowupCron(expr string) Option {
	return func(o *Opts) { o.FollowupCron = expr }
}

// WithFollowupAfter sets how old an uncontacted lead must be before the
// follow-up pass emails it.
func WithFollowupAfter(d time.Duration) Option {
	return func(o *Opts) { o.FollowupAfter = d }
}

// Server handles HTTP requests for leadchat.
type Server struct {
	opts     Opts
	st       store.Store
	sessions *session.Store
	router   *router.Router
	drafter  *mail.Drafter
	mailer   mail.Mailer
}

// storeRetriever adapts the document store to the responder's retriever.
type storeRetriever struct {
	st store.Store
}

func (r storeRetriever) Search(ctx context.Context, query string, limit int) ([]string, error) {
	return r.st.SearchDocuments(ctx, query, limit)
}

// NewServer assembles the server and its conversational collaborators.
func NewServer(st store.Store, client genai.ClientInterface, mailer mail.Mailer, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.FollowupAfter <= 0 {
		cfg.FollowupAfter = DefaultFollowupAfter
	}

	sessions := session.NewStore(cfg.SessionTimeout)
	classifier := assist.NewClassifier(client)
	judge := assist.NewStageJudge(client)
	responders := assist.NewResponders(client, storeRetriever{st: st})

	return &Server{
		opts:     cfg,
		st:       st,
		sessions: sessions,
		router:   router.New(sessions, classifier, judge, responders, st),
		drafter:  mail.NewDrafter(client),
		mailer:   mailer,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/leads", s.leadsHandler)
	mux.HandleFunc("/leads/", s.leadResourceHandler)
	mux.HandleFunc("/consultations", s.consultationsHandler)
	mux.HandleFunc("/documents", s.documentsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully. The session evictor runs for the same lifetime.
func (s *Server) Serve(ctx context.Context) error {
	s.sessions.StartEvictor(ctx, s.opts.SweepInterval)

	if s.opts.FollowupCron != "" {
		sched := scheduler.NewScheduler()
		defer sched.Stop()
		if err := sched.AddJob(s.opts.FollowupCron, func() {
			s.runFollowupPass(context.Background())
		}); err != nil {
			return fmt.Errorf("Serve: follow-up schedule: %w", err)
		}
		slog.Info("Server.Serve: follow-up pass scheduled", "cron", s.opts.FollowupCron, "after", s.opts.FollowupAfter)
	}

	httpServer := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Serve: API listening", "addr", s.opts.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("Serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Server.Serve: shutting down", "reason", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("Serve: shutdown: %w", err)
		}
		return nil
	}
}

// Run builds every module from the given options and serves the API until the
// process receives an interrupt or termination signal.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, mailOpts []mail.Option, apiOpts []Option) error {
	st, err := store.NewStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("Run: store init: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Error("Run: store close failed", "error", cerr)
		}
	}()

	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("Run: genai init: %w", err)
	}

	mailer := mail.NewSMTPMailer(mailOpts...)
	server := NewServer(st, client, mailer, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}
