package solrdex

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/solrdex/internal/solrtest"
)

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name   string
		scheme string
		host   string
		port   int
	}{
		{"empty host", "http", "", 8983},
		{"bad scheme", "ftp", "localhost", 8983},
		{"zero port", "http", "localhost", 0},
		{"port out of range", "http", "localhost", 70000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.scheme, tc.host, tc.port)
			if !errors.Is(err, ErrUsage) {
				t.Errorf("err = %v, want ErrUsage", err)
			}
		})
	}
}

func TestNew_DefaultScheme(t *testing.T) {
	c, err := New("", "localhost", 8983)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.BaseURL(); got != "http://localhost:8983/solr" {
		t.Errorf("base url = %q", got)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	doer := &fakeDoer{}
	WithTransport(doer).apply(cfg)
	if cfg.transport != doer {
		t.Error("expected transport to be set")
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestPing(t *testing.T) {
	node := solrtest.New()
	defer node.Close()

	c := newMockClient(t, node)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	req := node.LastRequest()
	if req.Path != "/solr/admin/info/system" {
		t.Errorf("path = %q", req.Path)
	}
	if req.Query.Get("wt") != "json" {
		t.Errorf("wt = %q, want json", req.Query.Get("wt"))
	}
}

func TestSystemInfo(t *testing.T) {
	node := solrtest.New()
	defer node.Close()

	c := newMockClient(t, node)
	info, err := c.SystemInfo(context.Background())
	if err != nil {
		t.Fatalf("system info: %v", err)
	}
	if _, ok := info["lucene"]; !ok {
		t.Error("expected lucene key in system info")
	}
	if _, ok := info["responseHeader"]; ok {
		t.Error("responseHeader should be stripped")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("search", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "solrdex_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("solrdex_sdk_operations_total not found")
	}
}

func TestObserver_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Two clients sharing one registry must not collide.
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestClient_MetricsRecorded(t *testing.T) {
	node := solrtest.New()
	defer node.Close()

	reg := prometheus.NewRegistry()
	host, port := node.HostPort()
	c, err := New("http", host, port, WithPrometheus(reg))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metrics after an operation")
	}
}
