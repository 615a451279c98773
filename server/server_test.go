package server

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/testutil"
)

func TestNewApp(t *testing.T) {
	t.Run("starts with default phases", func(t *testing.T) {
		app := New()
		if got := app.Phases(); !reflect.DeepEqual(got, DefaultPhases) {
			t.Errorf("phases = %v, want %v", got, DefaultPhases)
		}
	})

	t.Run("env defaults to development", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		app := New()
		if app.Env() != "development" {
			t.Errorf("Env() = %q", app.Env())
		}
	})

	t.Run("env from environment", func(t *testing.T) {
		t.Setenv(EnvVar, "production")
		if env := New().Env(); env != "production" {
			t.Errorf("Env() = %q, want production", env)
		}
	})

	t.Run("applies functional options", func(t *testing.T) {
		app := New(WithSetting("env", "test"), WithSetting("port", 8080))
		if app.Env() != "test" {
			t.Errorf("Env() = %q, want test", app.Env())
		}
		if app.Get("port") != 8080 {
			t.Errorf("port = %v", app.Get("port"))
		}
		if got := app.Settings(); !reflect.DeepEqual(got, []string{"env", "port"}) {
			t.Errorf("settings = %v", got)
		}
	})
}

func TestMiddlewareOrder(t *testing.T) {
	app := New()
	mustAdd := func(phase string, tag string) {
		t.Helper()
		if err := app.Middleware(phase, nil, testutil.Tag(tag)); err != nil {
			t.Fatalf("Middleware(%q): %v", phase, err)
		}
	}

	mustAdd("final", "final")
	mustAdd("routes:after", "routes-after")
	mustAdd("routes", "routes-1")
	mustAdd("routes", "routes-2")
	mustAdd("routes:before", "routes-before")
	mustAdd("initial", "initial")

	app.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tc := testutil.NewTestClient(t, app)
	rec := tc.Get("/")
	tc.AssertStatus(rec, http.StatusNoContent)

	want := "initial,routes-before,routes-1,routes-2,routes-after,final"
	if got := testutil.TraceString(rec); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestMiddlewarePaths(t *testing.T) {
	app := New()
	if err := app.Middleware("auth", []string{"api/"}, testutil.Tag("api")); err != nil {
		t.Fatal(err)
	}
	if err := app.Middleware("auth", []string{"/"}, testutil.Tag("all")); err != nil {
		t.Fatal(err)
	}

	tc := testutil.NewTestClient(t, app)
	tests := []struct {
		path string
		want string
	}{
		{"/api", "api,all"},
		{"/api/items", "api,all"},
		{"/apiary", "all"},
		{"/", "all"},
	}
	for _, tt := range tests {
		if got := testutil.TraceString(tc.Get(tt.path)); got != tt.want {
			t.Errorf("GET %s trace = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddlewareErrors(t *testing.T) {
	app := New()

	for _, phase := range []string{"missing", "routes:during", ":before"} {
		err := app.Middleware(phase, nil, testutil.Tag("x"))
		if !errors.Is(err, ErrPhase) {
			t.Errorf("Middleware(%q) err = %v, want phase error", phase, err)
		}
	}
	if err := app.Middleware("routes", nil, nil); err == nil {
		t.Error("expected error for nil middleware")
	}
}

func TestMiddlewareFromConfig(t *testing.T) {
	t.Run("builds with params", func(t *testing.T) {
		app := New()
		err := app.MiddlewareFromConfig(testutil.TagFactory("default"), middleware.Config{
			Phase:   "routes",
			Params:  "configured",
			Enabled: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := testutil.TraceString(testutil.NewTestClient(t, app).Get("/")); got != "configured" {
			t.Errorf("trace = %q", got)
		}
	})

	t.Run("skips disabled", func(t *testing.T) {
		app := New()
		called := false
		factory := func(params any) (middleware.Middleware, error) {
			called = true
			return testutil.Tag("x"), nil
		}
		if err := app.MiddlewareFromConfig(factory, middleware.Config{Phase: "routes"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("factory should not run for disabled middleware")
		}
	})

	t.Run("mounts on paths", func(t *testing.T) {
		app := New()
		err := app.MiddlewareFromConfig(testutil.TagFactory("admin"), middleware.Config{
			Phase:   "auth",
			Enabled: true,
			Paths:   []string{"/admin"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tc := testutil.NewTestClient(t, app)
		if got := testutil.TraceString(tc.Get("/admin/users")); got != "admin" {
			t.Errorf("trace = %q", got)
		}
		if got := testutil.TraceString(tc.Get("/public")); got != "" {
			t.Errorf("trace = %q, want empty", got)
		}
	})

	t.Run("factory errors are wrapped", func(t *testing.T) {
		app := New()
		boom := errors.New("boom")
		factory := func(params any) (middleware.Middleware, error) { return nil, boom }
		err := app.MiddlewareFromConfig(factory, middleware.Config{Phase: "routes", Enabled: true})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})

	t.Run("nil middleware is rejected", func(t *testing.T) {
		app := New()
		factory := func(params any) (middleware.Middleware, error) { return nil, nil }
		if err := app.MiddlewareFromConfig(factory, middleware.Config{Phase: "routes", Enabled: true}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestHandlerIsRebuilt(t *testing.T) {
	app := New()
	tc := testutil.NewTestClient(t, app)

	if got := testutil.TraceString(tc.Get("/")); got != "" {
		t.Fatalf("trace = %q, want empty", got)
	}
	if err := app.Middleware("final", nil, testutil.Tag("late")); err != nil {
		t.Fatal(err)
	}
	if got := testutil.TraceString(tc.Get("/")); got != "late" {
		t.Errorf("trace = %q, want late", got)
	}
}
