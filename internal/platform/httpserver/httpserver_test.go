package httpserver

import (
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	srv := New(":9999", http.NewServeMux())

	if srv.Addr != ":9999" {
		t.Errorf("Addr = %q, want %q", srv.Addr, ":9999")
	}
	if srv.Handler == nil {
		t.Error("Handler is nil")
	}
	for name, d := range map[string]int64{
		"ReadHeaderTimeout": int64(srv.ReadHeaderTimeout),
		"ReadTimeout":       int64(srv.ReadTimeout),
		"WriteTimeout":      int64(srv.WriteTimeout),
		"IdleTimeout":       int64(srv.IdleTimeout),
	} {
		if d == 0 {
			t.Errorf("%s is unset", name)
		}
	}
}
