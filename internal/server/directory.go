package server

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-kardex/pkg/binding"
	"github.com/goliatone/go-kardex/pkg/lookup"
	"github.com/goliatone/go-kardex/pkg/rut"
)

// Directory is the part of the lookup client behind the movement, picker and
// auto-create routes.
type Directory interface {
	binding.MovementSource
	FichaOptions(ctx context.Context, term string) ([]lookup.Choice, error)
	ServiciosClinicos(ctx context.Context, term string) ([]lookup.Choice, error)
	Profesionales(ctx context.Context, term string) ([]lookup.Choice, error)
	AutoCreateFicha(ctx context.Context, rut, createURL string) (*lookup.AutoCreateResult, error)
}

var _ Directory = (*lookup.Client)(nil)

var movementKinds = map[string]lookup.MovementKind{
	"recepcion": lookup.Recepcion,
	"traspaso":  lookup.Traspaso,
}

type pickerResponse struct {
	Results []lookup.Choice `json:"results"`
}

type autoCreateRequest struct {
	Rut       string `json:"rut" form:"rut"`
	CreateURL string `json:"create_url" form:"create_url"`
}

func (s *Server) directoryRoutes() {
	api := s.echo.Group("/api")
	api.GET("/pickers/fichas", s.picker(func(d Directory) pickerFunc { return d.FichaOptions }))
	api.GET("/pickers/servicios-clinicos", s.picker(func(d Directory) pickerFunc { return d.ServiciosClinicos }))
	api.GET("/pickers/profesionales", s.picker(func(d Directory) pickerFunc { return d.Profesionales }))
	api.GET("/movimientos/:kind/:rut", s.fillMovement)
	api.POST("/movimientos/:kind", s.ensureMovement)
	api.POST("/fichas/auto-create", s.autoCreateFicha)
}

type pickerFunc func(ctx context.Context, term string) ([]lookup.Choice, error)

func (s *Server) picker(pick func(Directory) pickerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.directory == nil {
			return errNoDirectory()
		}
		term := strings.TrimSpace(c.QueryParam("term"))
		if term == "" {
			term = strings.TrimSpace(c.QueryParam("search"))
		}
		options, err := pick(s.directory)(c.Request().Context(), term)
		if err != nil {
			return s.generateError(err)
		}
		if options == nil {
			options = []lookup.Choice{}
		}
		return c.JSON(http.StatusOK, pickerResponse{Results: options})
	}
}

func (s *Server) fillMovement(c echo.Context) error {
	binder, err := s.movementBinder(c)
	if err != nil {
		return err
	}
	found, err := binder.FillByRut(c.Request().Context(), c.Param("rut"))
	if err != nil {
		return s.generateError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, msgPacienteNoEncontrado)
	}
	return c.JSON(http.StatusOK, binder.Fields())
}

func (s *Server) ensureMovement(c echo.Context) error {
	binder, err := s.movementBinder(c)
	if err != nil {
		return err
	}
	var fields binding.MovimientoFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	binder.Set(fields)

	if err := binder.EnsureLoaded(c.Request().Context()); err != nil {
		if errors.Is(err, binding.ErrIncomplete) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, binding.ErrIncomplete.Error()).SetInternal(err)
		}
		return s.generateError(err)
	}
	return c.JSON(http.StatusOK, binder.Fields())
}

func (s *Server) movementBinder(c echo.Context) (*binding.Movimiento, error) {
	if s.directory == nil {
		return nil, errNoDirectory()
	}
	kind, ok := movementKinds[c.Param("kind")]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown movement kind")
	}
	return binding.NewMovimiento(s.directory, kind, binding.WithLogger(s.logger)), nil
}

func (s *Server) autoCreateFicha(c echo.Context) error {
	if s.directory == nil {
		return errNoDirectory()
	}
	var req autoCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := rut.Validate(req.Rut); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgRutInvalido)
	}
	result, err := s.directory.AutoCreateFicha(c.Request().Context(), rut.Format(req.Rut), req.CreateURL)
	if err != nil {
		return s.generateError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

// negotiate picks a renderer named by the Accept header, or fallback when the
// header does not name one of the registered content types.
func (s *Server) negotiate(c echo.Context, fallback string) string {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	if accept == "" {
		return fallback
	}
	renderer, err := s.orch.Registry().Negotiate(accept)
	if err != nil {
		return fallback
	}
	mediaType, _, err := mime.ParseMediaType(renderer.ContentType())
	if err != nil || !strings.Contains(accept, mediaType) {
		return fallback
	}
	return renderer.Name()
}

func errNoDirectory() error {
	return echo.NewHTTPError(http.StatusServiceUnavailable, "lookup backend not configured")
}
