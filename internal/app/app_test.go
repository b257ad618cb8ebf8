package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/lifecycle"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	var cfg Config
	cfg.Log.Mode = "development"
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "imtrack.db")
	cfg.Database.Migrate = true
	cfg.Storage.Mode = objectstore.ModeMemory
	cfg.Auth.Secret = "test-secret"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Validate(true); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Auth.Secret = ""
	if err := cfg.Validate(false); err != nil {
		t.Fatalf("Validate without auth: %v", err)
	}
	if err := cfg.Validate(true); err == nil || !strings.Contains(err.Error(), "JWT_SECRET_KEY") {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Database.Driver = "mysql"
	cfg.Lifecycle.Policy = "lenient"
	err := cfg.Validate(true)
	if err == nil || !strings.Contains(err.Error(), "DB_DRIVER") || !strings.Contains(err.Error(), "LIFECYCLE_POLICY") {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestLifecyclePolicy(t *testing.T) {
	var cfg Config
	if p, err := cfg.LifecyclePolicy(); err != nil || p != lifecycle.PolicyPermissive {
		t.Fatalf("default policy = %q, %v", p, err)
	}
	cfg.Lifecycle.Policy = " Strict "
	if p, err := cfg.LifecyclePolicy(); err != nil || p != lifecycle.PolicyStrict {
		t.Fatalf("strict policy = %q, %v", p, err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IMTRACK_CONFIG", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("OBJECT_STORAGE_MODE", "memory")
	t.Setenv("LIFECYCLE_POLICY", "strict")
	t.Setenv("CORS_ORIGINS", "https://a.edu,https://b.edu")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Storage.Mode != objectstore.ModeMemory || cfg.Lifecycle.Policy != "strict" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.Addr != ":8080" || cfg.Certificate.KeyPrefix != "generated-certificates" {
		t.Fatalf("defaults not applied: %+v", cfg.Server)
	}
}

func TestNewWiresHTTP(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), Options{HTTP: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(ctx) })

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/materials", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status=%d", rec.Code)
	}

	token, err := a.Tokens.Sign(1, "Admin", "admin@x.edu")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/materials?status=Certified", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/certificates/verify/CERT-99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("verify unknown status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestNewWithoutHTTPSkipsAuth(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Auth.Secret = ""
	a, err := New(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(ctx)
	if a.Router != nil || a.Tokens != nil {
		t.Fatalf("router should not be built")
	}
}

func TestEvaluationRoutesAreRoleGated(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), Options{HTTP: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(ctx) })

	call := func(role, method, target, body string) *httptest.ResponseRecorder {
		t.Helper()
		token, err := a.Tokens.Sign(2, role, "user@x.edu")
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, req)
		return rec
	}

	scores := `{"scores":{"a1":1,"a2":1,"a3":1,"b1":1,"b2":1,"b3":1,"c1":1,"c2":1,"c3":1,"c4":1,"c5":1,"c6":1,"c7":1,"c8":1,"c9":1,"c10":1,"d1":1,"d2":1,"d3":1,"e1":1,"e2":1,"e3":1}}`
	if rec := call("Faculty", http.MethodPost, "/api/evaluations", scores); rec.Code != http.StatusForbidden {
		t.Fatalf("faculty create status=%d", rec.Code)
	}
	rec := call("PIMEC", http.MethodPost, "/api/evaluations", scores)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"total":22`) {
		t.Fatalf("pimec create status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := call("UTLDO Admin", http.MethodGet, "/api/evaluations/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("utldo get status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := call("PIMEC", http.MethodGet, "/api/evaluations", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("pimec list status=%d", rec.Code)
	}
	if rec := call("Technical Admin", http.MethodDelete, "/api/evaluations/1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("technical delete status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = call("Faculty", http.MethodGet, "/api/requirements/recommendation-letter/check", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"path":"requirements/recommendation-letter.pdf"`) {
		t.Fatalf("letter check status=%d body=%s", rec.Code, rec.Body.String())
	}
}
