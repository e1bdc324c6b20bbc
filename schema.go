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

// schemaOp is one pending schema mutation, tagged with its Solr action name.
type schemaOp struct {
	action string // add-field, replace-field, delete-field
	body   any
}

// SchemaBuilder accumulates schema mutations for one collection. Operations
// are sent as a single batch in accumulation order; Solr applies them in
// request order, and later operations on the same field name take effect
// only at the server. The builder is single-use for mutations; the read
// methods Get and Fields do not consume it.
type SchemaBuilder struct {
	col *Collection
	ops []schemaOp

	consumed bool
	err      error
}

// AddField appends an add-field operation for the descriptor.
func (b *SchemaBuilder) AddField(f Field) *SchemaBuilder {
	b.append(schemaOp{action: "add-field", body: f})
	return b
}

// ReplaceField appends a replace-field operation for the descriptor.
func (b *SchemaBuilder) ReplaceField(f Field) *SchemaBuilder {
	b.append(schemaOp{action: "replace-field", body: f})
	return b
}

// DeleteField appends a delete-field operation for the named field.
func (b *SchemaBuilder) DeleteField(name string) *SchemaBuilder {
	b.append(schemaOp{action: "delete-field", body: map[string]string{"name": name}})
	return b
}

func (b *SchemaBuilder) append(op schemaOp) {
	if b.consumed {
		if b.err == nil {
			b.err = fmt.Errorf("%w: schema builder reused after commit", ErrUsage)
		}
		return
	}
	b.ops = append(b.ops, op)
}

// Commit sends the pending operations as one batch against the collection's
// schema endpoint. A failure reported by the server applies to the whole
// batch; the client never infers per-operation success. An empty builder
// commits as a no-op without I/O.
func (b *SchemaBuilder) Commit(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { b.col.client.obs.observe("schema.update", start, err) }()

	if b.consumed {
		if b.err != nil {
			return b.err
		}
		return fmt.Errorf("%w: schema builder reused after commit", ErrUsage)
	}
	b.consumed = true
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	body := make([]map[string]any, len(b.ops))
	for i, op := range b.ops {
		body[i] = map[string]any{op.action: op.body}
	}

	_, err = b.col.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   b.col.name + "/schema",
		Params: url.Values{"wt": {"json"}},
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("update schema of %q: %w", b.col.name, err)
	}
	return nil
}

// Get retrieves the collection's full schema.
func (b *SchemaBuilder) Get(ctx context.Context) (_ map[string]json.RawMessage, err error) {
	start := time.Now()
	defer func() { b.col.client.obs.observe("schema.get", start, err) }()

	res, err := b.col.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   b.col.name + "/schema",
		Params: url.Values{"wt": {"json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("get schema of %q: %w", b.col.name, err)
	}
	return res.Body, nil
}

// FieldInfo is one schema field definition as reported by the server.
type FieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Indexed     bool   `json:"indexed"`
	Stored      bool   `json:"stored"`
	MultiValued bool   `json:"multiValued"`
}

// Fields lists the field definitions of the collection's schema.
func (b *SchemaBuilder) Fields(ctx context.Context) (_ []FieldInfo, err error) {
	start := time.Now()
	defer func() { b.col.client.obs.observe("schema.fields", start, err) }()

	res, err := b.col.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   b.col.name + "/schema/fields",
		Params: url.Values{"wt": {"json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list fields of %q: %w", b.col.name, err)
	}

	var fields []FieldInfo
	if ok, err := res.Decode("fields", &fields); err != nil {
		return nil, fmt.Errorf("list fields of %q: %w", b.col.name, err)
	} else if !ok {
		return nil, fmt.Errorf("list fields of %q: %w: missing fields key", b.col.name, ErrDecode)
	}
	return fields, nil
}
