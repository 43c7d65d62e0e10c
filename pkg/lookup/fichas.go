package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	fichaPacientePath = "/personas/ficha-paciente/"
	fichasPath        = "/api/ingreso-paciente-ficha/"
	// DefaultAutoCreatePath is used when the search answer names no create URL.
	DefaultAutoCreatePath = "/api/ingreso-paciente-ficha/auto-create/"
)

// SearchKind selects the column the record search matches on.
type SearchKind string

const (
	SearchByRut    SearchKind = "rut"
	SearchByFicha  SearchKind = "ficha"
	SearchByCodigo SearchKind = "codigo"
)

// FichaPaciente fetches the patient and its current record by RUT. A missing
// patient yields ErrNotFound.
func (c *Client) FichaPaciente(ctx context.Context, rut string) (*FichaPaciente, error) {
	rut = strings.TrimSpace(rut)
	if rut == "" {
		return nil, errors.New("lookup: ficha paciente: rut is required")
	}
	seg, err := pathSegment(rut)
	if err != nil {
		return nil, err
	}
	var out FichaPaciente
	if err := c.getJSON(ctx, fichaPacientePath+seg+"/", nil, &out); err != nil {
		return nil, err
	}
	if out.Paciente == nil {
		return nil, fmt.Errorf("lookup: ficha paciente %s: %w", rut, ErrNotFound)
	}
	return &out, nil
}

// SearchFichas runs the record search.
func (c *Client) SearchFichas(ctx context.Context, term string, kind SearchKind) ([]SearchResult, error) {
	query := url.Values{"search": {strings.TrimSpace(term)}}
	if kind != "" {
		query.Set("tipo", string(kind))
	}
	return getResults[SearchResult](ctx, c, fichasPath, query)
}

// FichaOptions returns record hits labelled for a picker.
func (c *Client) FichaOptions(ctx context.Context, term string) ([]Choice, error) {
	results, err := c.SearchFichas(ctx, term, SearchByFicha)
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(results))
	for _, r := range results {
		out = append(out, Choice{ID: r.ID, Text: r.FichaLabel()})
	}
	return out, nil
}

// Ficha fetches a record with its nested patient.
func (c *Client) Ficha(ctx context.Context, id string) (*Ficha, error) {
	seg, err := pathSegment(id)
	if err != nil {
		return nil, err
	}
	var out Ficha
	if err := c.getJSON(ctx, fichasPath+seg+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AutoCreateFicha asks the server to create a record for rut. createURL may be
// absolute, relative to the base URL, or empty for the default endpoint.
func (c *Client) AutoCreateFicha(ctx context.Context, rut, createURL string) (*AutoCreateResult, error) {
	target, err := c.resolve(createURL)
	if err != nil {
		return nil, err
	}
	var out AutoCreateResult
	if err := c.postForm(ctx, target, url.Values{"rut": {rut}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return c.endpoint(DefaultAutoCreatePath, nil), nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("lookup: parse create url: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	return c.endpoint(u.EscapedPath(), u.Query()), nil
}

// pathSegment escapes a caller-supplied id for use as one path segment.
func pathSegment(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return "", fmt.Errorf("lookup: invalid path segment %q", id)
	}
	return url.PathEscape(id), nil
}
