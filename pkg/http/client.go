package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// PoolConfig sizes the connection pool used for gateway posts. Every
// transaction goes to a single processor host.
type PoolConfig struct {
	MaxConns    int
	IdleConns   int
	IdleTimeout time.Duration

	DialTimeout   time.Duration
	TLSTimeout    time.Duration
	HeaderTimeout time.Duration
	KeepAlive     time.Duration
}

// GatewayPoolConfig returns the pool used by nuveictl.
// Issuer authorizations can hold the response for a long time.
func GatewayPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:      100,
		IdleConns:     50,
		IdleTimeout:   90 * time.Second,
		DialTimeout:   10 * time.Second,
		TLSTimeout:    10 * time.Second,
		HeaderTimeout: 60 * time.Second,
		KeepAlive:     60 * time.Second,
	}
}

// NewHTTPClient builds the client that posts XML to the gateway. The header
// timeout never outlives the request timeout.
func NewHTTPClient(cfg PoolConfig, timeout time.Duration) *http.Client {
	headerTimeout := cfg.HeaderTimeout
	if timeout > 0 && (headerTimeout == 0 || headerTimeout > timeout) {
		headerTimeout = timeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.IdleConns,
		MaxIdleConnsPerHost:   cfg.IdleConns,
		MaxConnsPerHost:       cfg.MaxConns,
		IdleConnTimeout:       cfg.IdleTimeout,
		TLSHandshakeTimeout:   cfg.TLSTimeout,
		ResponseHeaderTimeout: headerTimeout,
		// XML bodies are small
		DisableCompression: true,
		TLSClientConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:  true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
