package irc

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// DialFunc opens the transport to the server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

const dialTimeout = 30 * time.Second

// newDialer returns a direct dialer, or one that tunnels through a SOCKS5
// proxy when proxyURL is set.
func newDialer(proxyURL string) (DialFunc, error) {
	direct := &net.Dialer{Timeout: dialTimeout, KeepAlive: time.Minute}
	if proxyURL == "" {
		return direct.DialContext, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy url: %w", err)
	}
	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}, nil
}
