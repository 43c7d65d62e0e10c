// Package server exposes the patient form rules and rendering over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/renderers/vanilla"
)

// Options configures a Server.
type Options struct {
	// Orchestrator drives rule evaluation and rendering. Required.
	Orchestrator *orchestrator.Orchestrator
	// Directory serves the movement, picker and auto-create routes. Those
	// answer 503 when it is nil.
	Directory Directory
	Logger    zerolog.Logger
	// FormAction is where the rendered patient form posts to.
	FormAction string
}

type Server struct {
	echo      *echo.Echo
	orch      *orchestrator.Orchestrator
	directory Directory
	logger    zerolog.Logger
	action    string
}

func New(opts Options) (*Server, error) {
	if opts.Orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	action := opts.FormAction
	if action == "" {
		action = "/pacientes/form"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(opts.Logger))
	e.Use(RequestID())
	e.Use(Logger(opts.Logger))

	s := &Server{
		echo:      e,
		orch:      opts.Orchestrator,
		directory: opts.Directory,
		logger:    opts.Logger,
		action:    action,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)
	s.echo.GET("/openapi.yaml", s.openAPI)
	s.echo.StaticFS("/assets", vanilla.AssetsFS())

	api := s.echo.Group("/api/form-rules")
	api.GET("", s.computeStates)
	api.GET("/table", s.table)
	api.POST("/apply", s.apply)
	api.POST("/validate", s.validate)

	pacientes := s.echo.Group("/pacientes")
	pacientes.GET("/form", s.pacienteForm)
	pacientes.POST("/form", s.submitPacienteForm)
	pacientes.GET("/:rut", s.paciente)

	s.directoryRoutes()
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("starting server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")
	return s.echo.Shutdown(ctx)
}
