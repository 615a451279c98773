package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecover(t *testing.T) {
	t.Run("passes through normal responses", func(t *testing.T) {
		rec := serve(Recover()(okHandler()), httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("recovers from panics", func(t *testing.T) {
		for _, val := range []any{"string panic", errors.New("error panic"), 42} {
			t.Run(fmt.Sprintf("%T", val), func(t *testing.T) {
				handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					panic(val)
				})

				rec := serve(Recover()(handler), httptest.NewRequest(http.MethodGet, "/", nil))

				if rec.Code != http.StatusInternalServerError {
					t.Errorf("status = %d, want 500", rec.Code)
				}
			})
		}
	})

	t.Run("custom handler receives panic value", func(t *testing.T) {
		var got any
		mw := RecoverWithHandler(func(w http.ResponseWriter, r *http.Request, panicVal any) {
			got = panicVal
			w.WriteHeader(http.StatusTeapot)
		})
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("custom")
		})

		rec := serve(mw(handler), httptest.NewRequest(http.MethodGet, "/", nil))

		if got != "custom" {
			t.Errorf("panic value = %v", got)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("logs recovered panics", func(t *testing.T) {
		logger := &mockLogger{}
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(errors.New("kaboom"))
		})

		serve(RecoverWithLogger(logger)(handler), httptest.NewRequest(http.MethodGet, "/x", nil))

		if len(logger.entries) != 1 || logger.entries[0].level != "error" {
			t.Fatalf("entries = %+v", logger.entries)
		}
		if v, _ := logger.entries[0].field("panic"); !strings.Contains(v.(string), "kaboom") {
			t.Errorf("panic field = %v", v)
		}
	})

	t.Run("re-panics on ErrAbortHandler", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		defer func() {
			if v := recover(); v != http.ErrAbortHandler {
				t.Errorf("recovered %v, want ErrAbortHandler", v)
			}
		}()
		serve(Recover()(handler), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
