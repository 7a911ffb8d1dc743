package window

import (
	"errors"
	"testing"
)

func TestNavigatorFunc(t *testing.T) {
	var got string
	nav := NavigatorFunc(func(url string) error {
		got = url
		return nil
	})

	if err := nav.Navigate("http://127.0.0.1:3000"); err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	if got != "http://127.0.0.1:3000" {
		t.Errorf("expected URL to be passed through, got %q", got)
	}
}

func TestNavigatorFuncPropagatesError(t *testing.T) {
	wantErr := errors.New("window gone")
	nav := NavigatorFunc(func(string) error { return wantErr })

	if err := nav.Navigate("http://127.0.0.1:3000"); !errors.Is(err, wantErr) {
		t.Errorf("expected error to propagate, got %v", err)
	}
}
