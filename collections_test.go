package solrdex

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/solrdex/internal/solrtest"
)

func TestCollectionCreate_Params(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	col, err := c.Collections().Create("users").
		NumShards(16).
		MaxShardsPerNode(16).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if col.Name() != "users" {
		t.Errorf("name = %q, want users", col.Name())
	}

	req := doer.lastReq(t)
	if req.Method != http.MethodPost {
		t.Errorf("method = %q, want POST", req.Method)
	}
	if req.URL.Path != "/solr/admin/collections" {
		t.Errorf("path = %q", req.URL.Path)
	}

	q := req.URL.Query()
	for key, want := range map[string]string{
		"action":           "CREATE",
		"name":             "users",
		"numShards":        "16",
		"maxShardsPerNode": "16",
		"wt":               "json",
	} {
		if got := q.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	// Unset parameters must not appear.
	for _, key := range []string{"router.field", "replicationFactor"} {
		if q.Has(key) {
			t.Errorf("unexpected parameter %s=%q", key, q.Get(key))
		}
	}
}

func TestCollectionCreate_RouterField(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	_, err := c.Collections().Create("users").
		RouterField("id").
		ReplicationFactor(2).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	q := doer.lastReq(t).URL.Query()
	if got := q.Get("router.field"); got != "id" {
		t.Errorf("router.field = %q, want id", got)
	}
	if got := q.Get("replicationFactor"); got != "2" {
		t.Errorf("replicationFactor = %q, want 2", got)
	}
}

func TestCollectionCreate_EmptyName(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	_, err := c.Collections().Create("").Commit(context.Background())
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if doer.calls() != 0 {
		t.Errorf("calls = %d, want 0", doer.calls())
	}
}

func TestCollectionCreate_DoubleCommit(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	b := c.Collections().Create("users")
	if _, err := b.Commit(context.Background()); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	_, err := b.Commit(context.Background())
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("second commit err = %v, want ErrUsage", err)
	}
	if doer.calls() != 1 {
		t.Errorf("calls = %d, want 1 (no second network call)", doer.calls())
	}
}

func TestCollectionCreate_MutateAfterCommit(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	b := c.Collections().Create("users")
	if _, err := b.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, err := b.NumShards(4).Commit(context.Background())
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
}

func TestCollectionCreate_ServerError(t *testing.T) {
	node := solrtest.New()
	defer node.Close()
	node.Seed("users")

	c := newMockClient(t, node)
	_, err := c.Collections().Create("users").Commit(context.Background())

	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if srvErr.Code != 400 {
		t.Errorf("code = %d, want 400", srvErr.Code)
	}
}

func TestCollectionsListGetDelete(t *testing.T) {
	node := solrtest.New()
	defer node.Close()
	node.Seed("users")
	node.Seed("orders")

	c := newMockClient(t, node)
	ctx := context.Background()

	cols, err := c.Collections().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("len = %d, want 2", len(cols))
	}

	col, err := c.Collections().Get(ctx, "users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if col.Name() != "users" {
		t.Errorf("name = %q", col.Name())
	}

	if _, err := c.Collections().Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}

	if err := c.Collections().Delete(ctx, "orders"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Collections().Get(ctx, "orders"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted collection still listed: %v", err)
	}
}

func TestCollectionsDelete_EmptyName(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	if err := c.Collections().Delete(context.Background(), ""); !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if doer.calls() != 0 {
		t.Errorf("calls = %d, want 0", doer.calls())
	}
}
