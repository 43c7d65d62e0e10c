package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// MovementKind names a movement endpoint.
type MovementKind string

const (
	Recepcion MovementKind = "recepcion-ficha"
	Traspaso  MovementKind = "traspaso-ficha"
)

func (k MovementKind) path() string {
	return "/api/" + string(k) + "/"
}

// ServicioKey is the payload prefix of the service the movement delivers to.
func (k MovementKind) ServicioKey() string {
	switch k {
	case Traspaso:
		return "servicio_clinico_traspaso"
	default:
		return "servicio_clinico_recepcion"
	}
}

// ObservacionKey is the payload key of the movement's remark.
func (k MovementKind) ObservacionKey() string {
	switch k {
	case Traspaso:
		return "observacion_traspaso"
	default:
		return "observacion_recepcion"
	}
}

// SearchMovements runs the movement search of kind.
func (c *Client) SearchMovements(ctx context.Context, kind MovementKind, term string) ([]SearchResult, error) {
	return getResults[SearchResult](ctx, c, kind.path(), url.Values{"search": {strings.TrimSpace(term)}})
}

// Movement fetches one movement of kind.
func (c *Client) Movement(ctx context.Context, kind MovementKind, id string) (*MovimientoDetalle, error) {
	seg, err := pathSegment(id)
	if err != nil {
		return nil, err
	}
	var out MovimientoDetalle
	if err := c.getJSON(ctx, kind.path()+seg+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovementByRut searches by RUT, prefers the hit whose text equals the RUT
// ignoring case, falls back to the first hit, and fetches its detail.
func (c *Client) MovementByRut(ctx context.Context, kind MovementKind, rut string) (*MovimientoDetalle, error) {
	rut = strings.TrimSpace(rut)
	results, err := c.SearchMovements(ctx, kind, rut)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("lookup: %s %s: %w", kind, rut, ErrNotFound)
	}
	hit := results[0]
	for _, r := range results {
		if strings.EqualFold(r.Text, rut) {
			hit = r
			break
		}
	}
	if hit.ID == "" {
		return nil, fmt.Errorf("lookup: %s %s: %w", kind, rut, ErrNotFound)
	}
	return c.Movement(ctx, kind, hit.ID.String())
}

// SearchRecepciones searches recepción movements.
func (c *Client) SearchRecepciones(ctx context.Context, term string) ([]SearchResult, error) {
	return c.SearchMovements(ctx, Recepcion, term)
}

// Recepcion fetches a recepción movement.
func (c *Client) Recepcion(ctx context.Context, id string) (*MovimientoDetalle, error) {
	return c.Movement(ctx, Recepcion, id)
}

// RecepcionPorRut resolves a recepción movement from a RUT.
func (c *Client) RecepcionPorRut(ctx context.Context, rut string) (*MovimientoDetalle, error) {
	return c.MovementByRut(ctx, Recepcion, rut)
}

// SearchTraspasos searches traspaso movements.
func (c *Client) SearchTraspasos(ctx context.Context, term string) ([]SearchResult, error) {
	return c.SearchMovements(ctx, Traspaso, term)
}

// Traspaso fetches a traspaso movement.
func (c *Client) Traspaso(ctx context.Context, id string) (*MovimientoDetalle, error) {
	return c.Movement(ctx, Traspaso, id)
}

// TraspasoPorRut resolves a traspaso movement from a RUT.
func (c *Client) TraspasoPorRut(ctx context.Context, rut string) (*MovimientoDetalle, error) {
	return c.MovementByRut(ctx, Traspaso, rut)
}
