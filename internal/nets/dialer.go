package nets

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Dialer is satisfied by net.Dialer and by the x/net/proxy dialers.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(context.Context, string, string) (net.Conn, error)

var _ Dialer = DialerFunc(nil)

func (d DialerFunc) DialContext(ctx context.Context, network string, addr string) (net.Conn, error) {
	return d(ctx, network, addr)
}

func (d DialerFunc) Dial(network string, addr string) (net.Conn, error) {
	return d(context.Background(), network, addr)
}

// ProxyAddr returns the first proxy configured in the environment.
func ProxyAddr() string {
	for _, key := range []string{"ALL_PROXY", "all_proxy", "HTTPS_PROXY", "https_proxy", "SOCKS_PROXY", "socks_proxy"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// NewDialer returns a dialer that routes through proxyAddr, except for loopback
// destinations which are always dialled directly. An empty address dials directly.
func NewDialer(proxyAddr string) (Dialer, error) {
	direct := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if strings.TrimSpace(proxyAddr) == "" {
		return direct, nil
	}
	u, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "socks" {
		u.Scheme = "socks5"
	}
	upstream, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, err
	}
	contextual, ok := upstream.(proxy.ContextDialer)
	if !ok {
		contextual = DialerFunc(func(_ context.Context, network, addr string) (net.Conn, error) {
			return upstream.Dial(network, addr)
		})
	}
	return DialerFunc(func(ctx context.Context, network, addr string) (net.Conn, error) {
		if IsLoopback(addr) {
			return direct.DialContext(ctx, network, addr)
		}
		return contextual.DialContext(ctx, network, addr)
	}), nil
}

// IsLoopback reports whether addr names the local machine.
func IsLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// HTTPClient builds a client whose transport dials through dialer.
func HTTPClient(dialer Dialer, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Transport: transport, Timeout: timeout}
}
