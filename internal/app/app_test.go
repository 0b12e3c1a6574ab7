package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/gatehouse/accessadmin/internal/core/domain"
	"github.com/gatehouse/accessadmin/internal/pkg/config"
)

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	env["ENV"] = "test"
	env["BCRYPT_COST"] = "4"
	if _, ok := env["DATA_FILE"]; !ok {
		env["DATA_FILE"] = filepath.Join(t.TempDir(), "db.json")
	}
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestBootstrapSuperuser_Idempotent(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"SUPERUSER_USERNAME": "Root",
		"SUPERUSER_PASSWORD": "secret1",
	})
	ctx := context.Background()

	if err := a.BootstrapSuperuser(ctx); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if err := a.BootstrapSuperuser(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	users, err := a.Users.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].Username != "root" || users[0].Role != domain.RoleSuperuser {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestBootstrapSuperuser_NoCredentialsIsNoop(t *testing.T) {
	a := newTestApp(t, map[string]string{})
	if err := a.BootstrapSuperuser(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	users, _ := a.Users.List(context.Background())
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestRouter_Readiness(t *testing.T) {
	a := newTestApp(t, map[string]string{})
	e := a.Router(false)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNew_DirBackend(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"STORE_BACKEND": config.BackendDir,
		"DATA_DIR":      t.TempDir(),
	})
	if _, err := a.Communities.Create(context.Background(), "north"); err != nil {
		t.Fatalf("create: %v", err)
	}
}
