package nets

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"localhost:11434":         true,
		"127.0.0.1:5000":          true,
		"[::1]:8080":              true,
		"generativelanguage:443":  false,
		"10.0.0.4:80":             false,
		"api.openai.com":          false,
	}
	for addr, want := range tests {
		if got := IsLoopback(addr); got != want {
			t.Fatalf("IsLoopback(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestNewDialerRejectsBadProxy(t *testing.T) {
	if _, err := NewDialer("ftp://proxy.invalid:21"); err == nil {
		t.Fatal("expected an error for an unsupported proxy scheme")
	}
}

func TestHTTPClientBypassesProxyForLoopback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dialer, err := NewDialer("socks5://127.0.0.1:1")
	if err != nil {
		t.Fatalf("dialer: %v", err)
	}
	client := HTTPClient(dialer, 5*time.Second)
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("loopback request should not use the proxy: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
