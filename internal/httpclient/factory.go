// Package httpclient builds the HTTP clients shared by the fetch, discovery
// and provider layers.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Config configures a client produced by New.
type Config struct {
	Timeout         time.Duration
	BlockPrivateIPs bool
	FollowRedirects bool
	MaxRedirects    int
}

// DefaultConfig returns the baseline client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		BlockPrivateIPs: true,
		FollowRedirects: true,
		MaxRedirects:    10,
	}
}

// New creates an HTTP client with timeout enforcement, optional private-IP
// blocking, and a bounded redirect policy.
func New(cfg Config) *http.Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cfg.BlockPrivateIPs {
				if err := validateAddress(addr); err != nil {
					return nil, fmt.Errorf("private address blocked: %w", err)
				}
			}
			var dialer net.Dialer
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if cfg.MaxRedirects > 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	}

	return client
}

// NewRelayClient creates a client for proxy-relay calls. Relays are public
// services, so private-IP blocking stays on; following redirects makes the
// relay's final URL observable, while disabling them surfaces the raw 3xx.
func NewRelayClient(timeout time.Duration, followRedirects bool) *http.Client {
	return New(Config{
		Timeout:         timeout,
		BlockPrivateIPs: true,
		FollowRedirects: followRedirects,
		MaxRedirects:    10,
	})
}

// NewProbeClient creates a short-timeout client for reachability probes and
// DNS-over-HTTPS lookups.
func NewProbeClient(timeout time.Duration) *http.Client {
	return New(Config{
		Timeout:         timeout,
		BlockPrivateIPs: true,
		FollowRedirects: false,
	})
}

func validateAddress(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("blocked private IP: %s (%s)", ip, host)
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if ip.IsUnspecified() {
		return true
	}
	return false
}

// CloseBody drains and closes a response body so the underlying connection
// can be reused. Unclosed bodies leak pool connections.
func CloseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
