package updates

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// HTTPConfig describes where the webhook is reachable and where it listens.
type HTTPConfig struct {
	// BaseURL is the public absolute URL Telegram calls.
	BaseURL *url.URL
	// Path is the webhook route, leading slash optional.
	Path string
	// Addr is the ip:port the server binds to.
	Addr netip.AddrPort
}

// NewHTTPConfig validates raw webhook settings.
func NewHTTPConfig(baseURL, path, addr string) (HTTPConfig, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return HTTPConfig{}, fmt.Errorf("%w: base url: %v", ErrInvalidConfig, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return HTTPConfig{}, fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, baseURL)
	}
	bind, err := netip.ParseAddrPort(strings.TrimSpace(addr))
	if err != nil {
		return HTTPConfig{}, fmt.Errorf("%w: bind address: %v", ErrInvalidConfig, err)
	}
	cfg := HTTPConfig{BaseURL: base, Path: strings.TrimSpace(path), Addr: bind}
	if _, err := url.Parse(cfg.RoutePath()); err != nil {
		return HTTPConfig{}, fmt.Errorf("%w: path: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// RoutePath returns the path the webhook route is served on.
func (c HTTPConfig) RoutePath() string {
	return "/" + strings.TrimLeft(c.Path, "/")
}

// FullURL returns the URL registered with Telegram.
func (c HTTPConfig) FullURL() string {
	return c.BaseURL.ResolveReference(&url.URL{Path: c.RoutePath()}).String()
}
