package lookup_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-kardex/pkg/lookup"
)

const fichaPacienteJSON = `{
  "paciente": {
    "codigo": "P-77", "rut": "12.345.678-5", "nip": "N1", "nombre": "ANA",
    "apellido_paterno": "SOTO", "apellido_materno": null, "fallecido": true,
    "fecha_fallecimiento": "2024-01-01", "numero_telefono1": "+56911111111"
  },
  "ficha": {
    "numero_ficha_sistema": 1042, "establecimiento": "HOSPITAL",
    "fecha_creacion": "2023-05-02T10:00:00Z",
    "movimientos": [{"fecha_envio": "2024-02-03T09:30:00Z", "destino": "PEDIATRIA", "profesional": "DR. ROJAS"}],
    "otras_fichas": [
      {"numero_ficha_sistema": 1042, "establecimiento": "HOSPITAL"},
      {"numero_ficha_sistema": "88", "establecimiento": null}
    ]
  }
}`

func newClient(t *testing.T, handler http.HandlerFunc, opts ...lookup.Option) *lookup.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := lookup.New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestFichaPaciente(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/personas/ficha-paciente/12.345.678-5/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, fichaPacienteJSON)
	})

	got, err := client.FichaPaciente(context.Background(), "12.345.678-5")
	if err != nil {
		t.Fatalf("ficha paciente: %v", err)
	}
	if got.Paciente.Key() != "P-77" || got.Paciente.NombreCompleto() != "ANA SOTO" {
		t.Fatalf("paciente = %+v", got.Paciente)
	}
	if got.Ficha.Numero() != "1042" {
		t.Fatalf("numero = %q", got.Ficha.Numero())
	}
	want := []lookup.FichaRef{{NumeroFichaSistema: "88"}}
	if diff := cmp.Diff(want, got.Otras()); diff != "" {
		t.Fatalf("otras mismatch (-want +got):\n%s", diff)
	}
	if got.Ficha.Movimientos[0].Responsable() != "DR. ROJAS" {
		t.Fatalf("responsable = %q", got.Ficha.Movimientos[0].Responsable())
	}
}

func TestIDsAreEscapedAsOnePathSegment(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.RequestURI)
		mu.Unlock()
		http.NotFound(w, r)
	})
	ctx := context.Background()

	_, _ = client.FichaPaciente(ctx, "../../api/profesionales")
	_, _ = client.Ficha(ctx, "7/../../x")
	_, _ = client.Movement(ctx, lookup.Traspaso, "8?x=1")

	want := []string{
		"/personas/ficha-paciente/..%2F..%2Fapi%2Fprofesionales/",
		"/api/ingreso-paciente-ficha/7%2F..%2F..%2Fx/",
		"/api/traspaso-ficha/8%3Fx=1/",
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("request uris mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"..", "."} {
		if _, err := client.Ficha(ctx, id); err == nil || !strings.Contains(err.Error(), "invalid path segment") {
			t.Fatalf("Ficha(%q) = %v, want invalid path segment", id, err)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("dot segments reached the server: %v", seen)
	}
}

func TestFichaPaciente_NotFound(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "Paciente no encontrado"}`)
	})

	_, err := client.FichaPaciente(context.Background(), "1-9")
	if !errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var status *lookup.StatusError
	if !errors.As(err, &status) || status.Detail != "Paciente no encontrado" {
		t.Fatalf("status error = %+v", status)
	}
}

func TestStatusErrorDetail(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "RUT inválido"}`)
	})

	_, err := client.AutoCreateFicha(context.Background(), "1-9", "")
	var status *lookup.StatusError
	if !errors.As(err, &status) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if status.Status != http.StatusBadRequest || status.Detail != "RUT inválido" {
		t.Fatalf("status = %+v", status)
	}
	if errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("400 must not match ErrNotFound")
	}
}

func TestConcurrentLookupsShareRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		fmt.Fprint(w, fichaPacienteJSON)
	})

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.FichaPaciente(context.Background(), "12.345.678-5")
			errs <- err
		}()
	}
	// Give every caller time to join the in-flight request.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hit %d times, want 1", got)
	}
}

func TestAutoCreateFicha(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/fichas/crear/" {
			http.Error(w, "unexpected", http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-CSRFToken") != "tok" {
			http.Error(w, `{"detail":"CSRF"}`, http.StatusForbidden)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("rut") != "12.345.678-5" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"redirect_url": "/kardex/fichas/9/"}`)
	}, lookup.WithCSRFToken("tok"))

	got, err := client.AutoCreateFicha(context.Background(), "12.345.678-5", "/fichas/crear/")
	if err != nil {
		t.Fatalf("auto create: %v", err)
	}
	if got.RedirectURL != "/kardex/fichas/9/" {
		t.Fatalf("redirect = %q", got.RedirectURL)
	}
}

func TestMovementByRut_PrefersExactMatch(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/recepcion-ficha/":
			if r.URL.Query().Get("search") != "12.345.678-k" {
				http.Error(w, "bad search", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"results": [{"id": 1, "text": "12.345.678"}, {"id": 2, "text": "12.345.678-K"}]}`)
		case "/api/recepcion-ficha/2/":
			fmt.Fprint(w, `{
			  "id": 2,
			  "ficha": {"numero_ficha_sistema": "55", "paciente": {"rut": "12.345.678-K", "nombre": "LUIS", "apellido_paterno": "PEREZ"}},
			  "servicio_clinico_recepcion": {"id": 4, "nombre": "URGENCIA"},
			  "observacion_recepcion": "ok"
			}`)
		default:
			http.NotFound(w, r)
		}
	})

	got, err := client.RecepcionPorRut(context.Background(), "12.345.678-k")
	if err != nil {
		t.Fatalf("recepcion por rut: %v", err)
	}
	if got.ID != "2" || got.Ficha.Numero() != "55" {
		t.Fatalf("detalle = %+v", got)
	}
	if got.Paciente().NombreCompleto() != "LUIS PEREZ" {
		t.Fatalf("paciente = %+v", got.Paciente())
	}
	if got.Servicio(lookup.Recepcion.ServicioKey()) != "URGENCIA" {
		t.Fatalf("servicio = %q", got.Servicio(lookup.Recepcion.ServicioKey()))
	}
	if got.Field(lookup.Recepcion.ObservacionKey()) != "ok" {
		t.Fatalf("observacion = %q", got.Field(lookup.Recepcion.ObservacionKey()))
	}
}

func TestMovementByRut_NoResults(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	if _, err := client.TraspasoPorRut(context.Background(), "1-9"); !errors.Is(err, lookup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPickers(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/servicios-clinicos/":
			fmt.Fprint(w, `[{"id": 1, "nombre": "PEDIATRIA"}]`)
		case "/api/profesionales/":
			fmt.Fprint(w, `{"results": [{"id": 7, "nombres": "MARIA", "apellido_paterno": "DIAZ"}, {"id": 8}]}`)
		case "/api/ingreso-paciente-ficha/":
			if r.URL.Query().Get("tipo") != "ficha" {
				http.Error(w, "tipo", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"results": [{"id": 3, "numero_ficha_sistema": 120}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	servicios, err := client.ServiciosClinicos(ctx, "ped")
	if err != nil {
		t.Fatalf("servicios: %v", err)
	}
	if diff := cmp.Diff([]lookup.Choice{{ID: "1", Text: "PEDIATRIA"}}, servicios); diff != "" {
		t.Fatalf("servicios mismatch (-want +got):\n%s", diff)
	}

	profesionales, err := client.Profesionales(ctx, "mar")
	if err != nil {
		t.Fatalf("profesionales: %v", err)
	}
	want := []lookup.Choice{{ID: "7", Text: "MARIA DIAZ"}, {ID: "8", Text: "ID 8"}}
	if diff := cmp.Diff(want, profesionales); diff != "" {
		t.Fatalf("profesionales mismatch (-want +got):\n%s", diff)
	}

	fichas, err := client.FichaOptions(ctx, "120")
	if err != nil {
		t.Fatalf("fichas: %v", err)
	}
	if diff := cmp.Diff([]lookup.Choice{{ID: "3", Text: "Ficha: 120"}}, fichas); diff != "" {
		t.Fatalf("fichas mismatch (-want +got):\n%s", diff)
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}, lookup.WithRateLimit(0.001, 1))

	ctx := context.Background()
	if _, err := client.ServiciosClinicos(ctx, "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := client.ServiciosClinicos(ctx, "b")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	t.Parallel()

	if _, err := lookup.New("/relative"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
