package config

import (
	"errors"
	"strings"
	"testing"
)

func TestMiddlewareMerger(t *testing.T) {
	t.Run("overrides declared middleware", func(t *testing.T) {
		target := mustJSON(t, `{"init": {"logger": {"level": "info"}}}`)
		fragment := mustJSON(t, `{"init": {"logger": {"level": "debug"}}}`)

		if err := (MiddlewareMerger{}).Merge(target, fragment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		level, _ := target.Subtree("init").Subtree("logger").Get("level")
		if level != "debug" {
			t.Errorf("level = %v, want debug", level)
		}
	})

	t.Run("rejects undefined middleware", func(t *testing.T) {
		target := mustJSON(t, `{"init": {"logger": {"level": "info"}}}`)
		fragment := mustJSON(t, `{"init": {"tracer": {}}}`)

		err := (MiddlewareMerger{}).Merge(target, fragment)
		if !errors.Is(err, ErrUndefinedMiddleware) {
			t.Fatalf("err = %v, want undefined middleware", err)
		}
		var undef *UndefinedError
		if !errors.As(err, &undef) {
			t.Fatalf("expected *UndefinedError, got %T", err)
		}
		if undef.Phase != "init" || undef.Middleware != "tracer" {
			t.Errorf("got phase %q middleware %q", undef.Phase, undef.Middleware)
		}
		if !strings.Contains(err.Error(), `middleware "tracer" in phase "init" is not defined`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("rejects undefined phase", func(t *testing.T) {
		target := mustJSON(t, `{"init": {"logger": {}}}`)
		fragment := mustJSON(t, `{"routes:before": {"logger": {}}}`)

		err := (MiddlewareMerger{}).Merge(target, fragment)
		if !errors.Is(err, ErrUndefinedPhase) {
			t.Fatalf("err = %v, want undefined phase", err)
		}
		if errors.Is(err, ErrUndefinedMiddleware) {
			t.Error("undefined phase must not match ErrUndefinedMiddleware")
		}
		if !strings.Contains(err.Error(), `phase "routes:before" is not defined`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("sequence configs keep their length", func(t *testing.T) {
		target := mustJSON(t, `{"routes": {"./mw": [{"level": "a"}, {"level": "b"}]}}`)

		ok := mustJSON(t, `{"routes": {"./mw": [{}, {"level": "c"}]}}`)
		if err := (MiddlewareMerger{}).Merge(target, ok); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		bad := mustJSON(t, `{"routes": {"./mw": [{}]}}`)
		err := (MiddlewareMerger{}).Merge(target, bad)
		var mergeErr *MergeError
		if !errors.As(err, &mergeErr) || mergeErr.Path != "routes../mw" {
			t.Fatalf("err = %v, want length mismatch at routes../mw", err)
		}
	})

	t.Run("null middleware config accepts a tree", func(t *testing.T) {
		target := mustJSON(t, `{"files": {"./static": null}}`)
		fragment := mustJSON(t, `{"files": {"./static": {"params": "$!./public"}}}`)

		if err := (MiddlewareMerger{}).Merge(target, fragment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Subtree("files").Subtree("./static") == nil {
			t.Error("expected hole to be filled")
		}
	})
}

func TestAppMerger(t *testing.T) {
	target := mustJSON(t, `{"port": 3000}`)
	fragment := mustJSON(t, `{"port": 80, "host": "0.0.0.0"}`)

	if err := (AppMerger{}).Merge(target, fragment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := target.String(); got != `{"port":80,"host":"0.0.0.0"}` {
		t.Errorf("merged = %s", got)
	}
}
