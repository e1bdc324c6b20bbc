package solrdex

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Doer is the HTTP transport collaborator. *http.Client satisfies it.
// Connection management, TLS and timeouts are its responsibility, not the
// driver's.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	transport Doer

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithTransport sets the HTTP transport used for every commit.
// Defaults to a plain http.Client.
func WithTransport(d Doer) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = d
	})
}

// WithLogger enables structured logging for driver operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers driver metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
