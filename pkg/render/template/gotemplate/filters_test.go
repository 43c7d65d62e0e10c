package gotemplate

import (
	"strings"
	"testing"

	"github.com/flosch/pongo2/v6"
)

func TestInstallFilter_RejectsTakenName(t *testing.T) {
	t.Parallel()

	err := installFilter("upper", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return in, nil
	})
	if err == nil || !strings.Contains(err.Error(), `"upper" already registered`) {
		t.Fatalf("expected taken name error, got %v", err)
	}
}

func TestRegisterFilters_FechaHoraInstalled(t *testing.T) {
	t.Parallel()

	if err := registerFilters(); err != nil {
		t.Fatalf("register filters: %v", err)
	}
	if !pongo2.FilterExists("fechahora") {
		t.Fatalf("fechahora filter missing")
	}
	if err := installFilter("fechahora", fechaHora); err == nil {
		t.Fatalf("second fechahora registration accepted")
	}
}
