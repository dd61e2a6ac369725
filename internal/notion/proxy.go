package notion

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// newProxyTransport returns an HTTP transport that dials through the SOCKS5
// proxy at address ("host:port").
func newProxyTransport(address string) (*http.Transport, error) {
	if !isValidProxyAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}

	// nil auth: local SOCKS proxies (ssh -D, Tor) do not require credentials.
	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext:         dialContext(dialer),
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return transport, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// proxy.SOCKS5 returns a dialer implementing proxy.ContextDialer, so the
// fallback path is only taken for custom dialers.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case <-ctx.Done():
			go func() {
				if r := <-resultCh; r.conn != nil {
					r.conn.Close() //nolint:errcheck,gosec // abandoned connection
				}
			}()
			return nil, ctx.Err()
		case r := <-resultCh:
			return r.conn, r.err
		}
	}
}

// isValidProxyAddress checks if the address is in "host:port" format
// with a port between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, found := strings.Cut(address, ":")
	if !found || host == "" || strings.Contains(port, ":") {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil || strings.HasPrefix(port, "+") || strings.HasPrefix(port, "-") {
		return false
	}
	return n >= 1 && n <= 65535
}
