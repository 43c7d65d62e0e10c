package lookup

import (
	"context"
	"net/url"
	"strings"
)

type servicioItem struct {
	ID     Text   `json:"id"`
	Nombre string `json:"nombre"`
}

type profesionalItem struct {
	ID              Text   `json:"id"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
}

// ServiciosClinicos lists clinical services matching term.
func (c *Client) ServiciosClinicos(ctx context.Context, term string) ([]Choice, error) {
	items, err := getResults[servicioItem](ctx, c, "/api/servicios-clinicos/", url.Values{"search": {term}})
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(items))
	for _, it := range items {
		out = append(out, Choice{ID: it.ID, Text: it.Nombre})
	}
	return out, nil
}

// Profesionales lists professionals matching term, labelled with their full
// name or "ID <id>" when the name is empty.
func (c *Client) Profesionales(ctx context.Context, term string) ([]Choice, error) {
	items, err := getResults[profesionalItem](ctx, c, "/api/profesionales/", url.Values{"search": {term}})
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(items))
	for _, it := range items {
		var parts []string
		for _, p := range []string{it.Nombres, it.ApellidoPaterno, it.ApellidoMaterno} {
			if strings.TrimSpace(p) != "" {
				parts = append(parts, strings.TrimSpace(p))
			}
		}
		label := strings.Join(parts, " ")
		if label == "" {
			label = "ID " + it.ID.String()
		}
		out = append(out, Choice{ID: it.ID, Text: label})
	}
	return out, nil
}
