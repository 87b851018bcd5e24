package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Stage is one named step of the request pipeline.
type Stage struct {
	Name       string
	Middleware func(http.Handler) http.Handler
}

// Pipeline is the ordered list of stages every request passes through before
// routing. The first stage is the outermost.
type Pipeline []Stage

// PipelineConfig carries what the default stages need.
type PipelineConfig struct {
	Tokens         TokenAuthenticator
	AllowedOrigins []string
	Timeout        time.Duration

	// AccessLog receives one line per request. Defaults to chi's stdout logger.
	AccessLog middleware.LoggerInterface
}

// DefaultPipeline returns the standard stage order. Authentication runs last
// so CSRF rejections never reach token parsing.
func DefaultPipeline(cfg PipelineConfig) Pipeline {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	accessLog := middleware.Logger
	if cfg.AccessLog != nil {
		accessLog = middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.AccessLog, NoColor: true})
	}

	return Pipeline{
		{Name: "request_id", Middleware: middleware.RequestID},
		{Name: "real_ip", Middleware: middleware.RealIP},
		{Name: "recoverer", Middleware: middleware.Recoverer},
		{Name: "logger", Middleware: accessLog},
		{Name: "timeout", Middleware: middleware.Timeout(timeout)},
		{Name: "cors", Middleware: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           300,
		})},
		{Name: "csrf", Middleware: CSRFGuard},
		{Name: "authenticate", Middleware: Authenticate(cfg.Tokens)},
	}
}

// Names lists the stage names in order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage.Name
	}
	return names
}

// Middlewares returns the stage middlewares in order, ready for chi's Use.
func (p Pipeline) Middlewares() []func(http.Handler) http.Handler {
	mws := make([]func(http.Handler) http.Handler, len(p))
	for i, stage := range p {
		mws[i] = stage.Middleware
	}
	return mws
}

// Then wraps h with every stage, the first stage outermost.
func (p Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p) - 1; i >= 0; i-- {
		h = p[i].Middleware(h)
	}
	return h
}
