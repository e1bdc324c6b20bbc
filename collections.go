package solrdex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kailas-cloud/solrdex/internal/rest"
)

// CollectionsAPI administers collections on the node.
type CollectionsAPI struct {
	client *Client
}

// Create returns a builder for a new collection with the given name.
// Nothing happens until Commit.
func (a *CollectionsAPI) Create(name string) *CollectionBuilder {
	return &CollectionBuilder{client: a.client, name: name}
}

// List returns a handle for every existing collection.
func (a *CollectionsAPI) List(ctx context.Context) (_ []*Collection, err error) {
	start := time.Now()
	defer func() { a.client.obs.observe("collection.list", start, err) }()

	res, err := a.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "admin/collections",
		Params: url.Values{"action": {"LIST"}, "wt": {"json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var names []string
	if ok, err := res.Decode("collections", &names); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("list collections: %w: missing collections key", ErrDecode)
	}

	out := make([]*Collection, len(names))
	for i, n := range names {
		out[i] = &Collection{name: n, client: a.client}
	}
	return out, nil
}

// Get returns a handle for an existing collection, or ErrNotFound.
func (a *CollectionsAPI) Get(ctx context.Context, name string) (*Collection, error) {
	cols, err := a.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	for _, c := range cols {
		if c.name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("get collection %q: %w", name, ErrNotFound)
}

// Delete removes a collection by name.
func (a *CollectionsAPI) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { a.client.obs.observe("collection.delete", start, err) }()

	if name == "" {
		return fmt.Errorf("delete collection: %w: name is required", ErrUsage)
	}

	_, err = a.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "admin/collections",
		Params: url.Values{"action": {"DELETE"}, "name": {name}, "wt": {"json"}},
	})
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

// CollectionBuilder accumulates collection-creation parameters. It is
// single-use: Commit consumes it, and any later call fails with ErrUsage.
type CollectionBuilder struct {
	client *Client
	name   string

	routerField       string
	numShards         int
	maxShardsPerNode  int
	replicationFactor int

	consumed bool
	err      error
}

// RouterField sets the document field used to compute the routing hash.
func (b *CollectionBuilder) RouterField(field string) *CollectionBuilder {
	b.check()
	b.routerField = field
	return b
}

// NumShards sets the number of shards created with the collection.
func (b *CollectionBuilder) NumShards(n int) *CollectionBuilder {
	b.check()
	b.numShards = n
	return b
}

// MaxShardsPerNode sets the shard-per-node cap.
func (b *CollectionBuilder) MaxShardsPerNode(n int) *CollectionBuilder {
	b.check()
	b.maxShardsPerNode = n
	return b
}

// ReplicationFactor sets the number of replicas per shard.
func (b *CollectionBuilder) ReplicationFactor(n int) *CollectionBuilder {
	b.check()
	b.replicationFactor = n
	return b
}

func (b *CollectionBuilder) check() {
	if b.consumed && b.err == nil {
		b.err = fmt.Errorf("%w: collection builder reused after commit", ErrUsage)
	}
}

// Commit creates the collection and returns its handle. The collection
// either exists fully per request or the call reports failure; no partial
// mutation and no retry.
func (b *CollectionBuilder) Commit(ctx context.Context) (_ *Collection, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("collection.create", start, err) }()

	if b.consumed {
		if b.err != nil {
			return nil, b.err
		}
		return nil, fmt.Errorf("%w: collection builder reused after commit", ErrUsage)
	}
	b.consumed = true
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, fmt.Errorf("create collection: %w: name is required", ErrUsage)
	}

	params := url.Values{
		"action": {"CREATE"},
		"name":   {b.name},
		"wt":     {"json"},
	}
	if b.routerField != "" {
		params.Set("router.field", b.routerField)
	}
	if b.numShards > 0 {
		params.Set("numShards", strconv.Itoa(b.numShards))
	}
	if b.maxShardsPerNode > 0 {
		params.Set("maxShardsPerNode", strconv.Itoa(b.maxShardsPerNode))
	}
	if b.replicationFactor > 0 {
		params.Set("replicationFactor", strconv.Itoa(b.replicationFactor))
	}

	_, err = b.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "admin/collections",
		Params: params,
	})
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", b.name, err)
	}
	return &Collection{name: b.name, client: b.client}, nil
}
