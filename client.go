package solrdex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kailas-cloud/solrdex/internal/rest"
)

// Client is the solrdex driver entry point. It is immutable after
// construction and safe to share across goroutines; it owns no builders and
// constructs them on demand.
type Client struct {
	scheme string
	host   string
	port   int

	exec *rest.Executor
	obs  *observer
}

// New creates a Client for a Solr node. No I/O is performed; only structural
// problems with the inputs are rejected.
func New(scheme, host string, port int, opts ...Option) (*Client, error) {
	if scheme == "" {
		scheme = "http"
	}
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrUsage, scheme)
	}
	if host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrUsage)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrUsage, port)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.transport == nil {
		cfg.transport = &http.Client{}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		scheme: scheme,
		host:   host,
		port:   port,
		exec:   rest.New(scheme, host, port, cfg.transport),
		obs:    obs,
	}, nil
}

// BaseURL returns the node URL including the /solr prefix.
func (c *Client) BaseURL() string { return c.exec.BaseURL() }

// Collections returns the collection administration API.
func (c *Client) Collections() *CollectionsAPI {
	return &CollectionsAPI{client: c}
}

// SystemInfo fetches node information from the admin endpoint.
func (c *Client) SystemInfo(ctx context.Context) (_ map[string]json.RawMessage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("system.info", start, err) }()

	res, err := c.exec.Commit(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "admin/info/system",
		Params: url.Values{"wt": {"json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("system info: %w", err)
	}
	return res.Body, nil
}

// Ping checks node reachability via the system info endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.SystemInfo(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
