package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-kardex/pkg/form"
	"github.com/goliatone/go-kardex/pkg/lookup"
	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/render"
	"github.com/goliatone/go-kardex/pkg/renderers/jsonstate"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/rut"
)

const (
	msgPacienteNoEncontrado = "No se encontró un paciente con ese RUT."
	msgRutInvalido          = "RUT inválido."
	csrfCookie              = "csrftoken"
)

type valuesRequest struct {
	Values map[string]any `json:"values"`
}

type statesResponse struct {
	Flags  rules.FlagSet `json:"flags"`
	States rules.States  `json:"states"`
	Rows   []string      `json:"rows"`
}

type applyResponse struct {
	Flags   rules.FlagSet     `json:"flags"`
	State   jsonstate.Payload `json:"state"`
	Values  map[string]any    `json:"values"`
	Changes []form.Change     `json:"changes"`
}

type validateResponse struct {
	OK         bool              `json:"ok"`
	Violation  *rules.Violation  `json:"violation,omitempty"`
	Violations []rules.Violation `json:"violations,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) openAPI(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", s.orch.Catalogue().Raw())
}

func (s *Server) computeStates(c echo.Context) error {
	flags := rules.FlagsFromValues(queryValues(c.QueryParams()))
	engine := s.orch.Engine()
	return c.JSON(http.StatusOK, statesResponse{
		Flags:  flags,
		States: engine.Compute(flags),
		Rows:   engine.Explain(flags),
	})
}

func (s *Server) table(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orch.Engine().Combinations())
}

func (s *Server) apply(c echo.Context) error {
	var req valuesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctrl := s.orch.NewController()
	changes := ctrl.Load(req.Values)
	view := render.FromControls(orchestrator.FormName, ctrl.Snapshot())

	return c.JSON(http.StatusOK, applyResponse{
		Flags:   ctrl.Flags(),
		State:   jsonstate.Build(view, render.RenderOptions{}),
		Values:  ctrl.Values(),
		Changes: changes,
	})
}

func (s *Server) validate(c echo.Context) error {
	var req valuesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctrl := s.orch.NewController()
	ctrl.Load(req.Values)

	violations := ctrl.Violations()
	if len(violations) == 0 {
		return c.JSON(http.StatusOK, validateResponse{OK: true})
	}
	first := violations[0]
	return c.JSON(http.StatusUnprocessableEntity, validateResponse{
		Violation:  &first,
		Violations: violations,
	})
}

func (s *Server) pacienteForm(c echo.Context) error {
	raw := c.QueryParam("rut")
	req := orchestrator.Request{
		Rut:           raw,
		Renderer:      "vanilla",
		RenderOptions: s.formOptions(c),
	}
	if raw != "" && rut.Validate(raw) != nil {
		req.Rut = ""
		req.Values = map[string]any{"rut": rut.Format(raw)}
		req.RenderOptions.Errors = map[string][]string{"rut": {msgRutInvalido}}
		req.RenderOptions.Focus = "rut"
		return s.renderHTML(c, http.StatusBadRequest, req)
	}

	result, err := s.orch.Generate(c.Request().Context(), req)
	if errors.Is(err, lookup.ErrNotFound) {
		req.Rut = ""
		req.Values = map[string]any{"rut": rut.Format(raw)}
		req.RenderOptions.FormErrors = render.MergeFormErrors(req.RenderOptions.FormErrors, msgPacienteNoEncontrado)
		return s.renderHTML(c, http.StatusNotFound, req)
	}
	if err != nil {
		return s.generateError(err)
	}
	return c.Blob(http.StatusOK, result.ContentType, result.Output)
}

func (s *Server) submitPacienteForm(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	req := orchestrator.Request{
		Values:        queryValues(params),
		Validate:      true,
		Renderer:      "vanilla",
		RenderOptions: s.formOptions(c),
	}
	result, err := s.orch.Generate(c.Request().Context(), req)
	if err != nil {
		return s.generateError(err)
	}
	status := http.StatusOK
	if len(result.Violations) > 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.Blob(status, result.ContentType, result.Output)
}

func (s *Server) paciente(c echo.Context) error {
	raw := c.Param("rut")
	if err := rut.Validate(raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgRutInvalido)
	}

	result, err := s.orch.Generate(c.Request().Context(), orchestrator.Request{
		Rut:      raw,
		Renderer: s.negotiate(c, "json"),
	})
	if errors.Is(err, lookup.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msgPacienteNoEncontrado)
	}
	if err != nil {
		return s.generateError(err)
	}
	return c.Blob(http.StatusOK, result.ContentType, result.Output)
}

func (s *Server) renderHTML(c echo.Context, status int, req orchestrator.Request) error {
	result, err := s.orch.Generate(c.Request().Context(), req)
	if err != nil {
		return s.generateError(err)
	}
	return c.Blob(status, result.ContentType, result.Output)
}

func (s *Server) generateError(err error) error {
	if errors.Is(err, orchestrator.ErrNoSource) {
		return errNoDirectory()
	}
	if errors.Is(err, rut.ErrInvalid) {
		return echo.NewHTTPError(http.StatusBadRequest, msgRutInvalido).SetInternal(err)
	}
	if errors.Is(err, render.ErrUnknownRenderer) {
		return echo.NewHTTPError(http.StatusNotAcceptable, "unknown renderer").SetInternal(err)
	}
	var status *lookup.StatusError
	if errors.As(err, &status) {
		return echo.NewHTTPError(http.StatusBadGateway, status.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// formOptions carries the Django CSRF cookie into the rendered form.
func (s *Server) formOptions(c echo.Context) render.RenderOptions {
	opts := render.RenderOptions{Action: s.action, Method: http.MethodPost}
	if cookie, err := c.Cookie(csrfCookie); err == nil && cookie.Value != "" {
		opts.Hidden = render.MergeHiddenFields(nil, render.CSRFToken(cookie.Value))
	}
	return opts
}

func queryValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, v := range values {
		out[key] = v
	}
	return out
}
