package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/motorpool/apiserver/config"
	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/db"
	"github.com/motorpool/apiserver/internal/handlers"
	"github.com/motorpool/apiserver/internal/logging"
	"github.com/motorpool/apiserver/internal/mq"
	"github.com/motorpool/apiserver/internal/services"
	"github.com/motorpool/apiserver/internal/storage"
	"github.com/motorpool/apiserver/internal/store"
)

const requestTimeout = 60 * time.Second

// Services is everything the router dispatches to.
type Services struct {
	Auth     handlers.AuthPipeline
	Tokens   handlers.TokenAuthenticator
	Users    *services.UserService
	Vehicles *services.VehicleService

	// AccessLog is optional; see handlers.PipelineConfig.
	AccessLog middleware.LoggerInterface
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	log        logging.Logger
}

// New connects to every backing service and assembles the HTTP server.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	photos, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	vehicleRepo := store.NewVehicleRepository(dbConn)
	events := mq.NewAccountEvents(queue, cfg.MQ.Channel)

	deps := Services{
		Auth:     services.NewAuthService(userRepo, auth.NewBcryptHasher(auth.MinPasswordCost), tokens, events, log),
		Tokens:   tokens,
		Users:    services.NewUserService(userRepo),
		Vehicles: services.NewVehicleService(vehicleRepo, photos, log),
	}
	if sl, ok := log.(*logging.SlogLogger); ok {
		deps.AccessLog = slog.NewLogLogger(sl.Slog().Handler(), slog.LevelInfo)
	}
	router := NewRouter(cfg, deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info(ctx, "server configured",
		"port", port,
		"mq_backend", cfg.MQ.Backend,
		"storage_backend", cfg.Storage.Backend,
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         queue,
		log:        log,
	}, nil
}

// NewRouter applies the default pipeline and mounts every route.
func NewRouter(cfg config.Config, svc Services) *chi.Mux {
	pipeline := handlers.DefaultPipeline(handlers.PipelineConfig{
		Tokens:         svc.Tokens,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        requestTimeout,
		AccessLog:      svc.AccessLog,
	})

	router := chi.NewRouter()
	router.Use(pipeline.Middlewares()...)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Auth, cfg.Cookies.Secure)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, svc.Users)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, svc.Users)
		})
		r.Route("/vehicles", func(r chi.Router) {
			handlers.VehicleRouter(r, svc.Vehicles)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and then releases the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			s.log.Warn(ctx, "close mq failed", "error", closeErr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
