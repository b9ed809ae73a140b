package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
)

func startProbeTarget(t *testing.T, serverHeader string) (host, port string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serverHeader != "" {
			w.Header().Set("Server", serverHeader)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", strconv.Itoa(addr.Port)
}

func TestHTTPProbe_Serving(t *testing.T) {
	tests := []struct {
		name         string
		serverHeader string
		want         bool
	}{
		{"frankenphp signature", "FrankenPHP/1.4", true},
		{"caddy signature", "Caddy", true},
		{"mixed case", "cAdDy", true},
		{"foreign server", "nginx/1.25", false},
		{"no server header", "", false},
	}

	probe := NewHTTPProbe()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := startProbeTarget(t, tt.serverHeader)
			if got := probe.Serving(context.Background(), "http", host, port); got != tt.want {
				t.Errorf("Serving() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPProbe_Serving_NoListener(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	probe := NewHTTPProbe()
	if probe.Serving(context.Background(), "http", "127.0.0.1", port) {
		t.Error("Serving() = true against a closed port")
	}
}

func TestProtocolsFor(t *testing.T) {
	tests := []struct {
		mode string
		want []string
	}{
		{"off", []string{"http"}},
		{"local", []string{"https", "http"}},
		{"on", []string{"https", "http"}},
		{"", []string{"http", "https"}},
		{"weird", []string{"http", "https"}},
	}

	for _, tt := range tests {
		if got := ProtocolsFor(tt.mode); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ProtocolsFor(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
