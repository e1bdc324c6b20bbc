package solrdex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/kailas-cloud/solrdex/internal/rest"
)

// DocumentsBuilder accumulates one update batch for a collection: either
// documents to add, or deletions by id/query, never both. It is single-use;
// Commit consumes it.
type DocumentsBuilder struct {
	col *Collection

	docs          []any
	deleteIDs     []string
	deleteQueries []string

	commitWithin time.Duration

	consumed bool
	err      error
}

// Add enqueues a document or, for a slice argument, each of its elements.
// Repeated calls accumulate: Add(a).Add(b) is the same batch as Add([]{a, b}).
// Every enqueued value must be object-like (a map or a struct); anything else
// poisons the builder and surfaces as ErrUsage at Commit, before any I/O.
func (b *DocumentsBuilder) Add(doc any) *DocumentsBuilder {
	if !b.mutable("document builder reused after commit") {
		return b
	}

	v := reflect.ValueOf(doc)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b.poison("raw bytes are not a document")
			return b
		}
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i).Interface()
			if !isDocument(elem) {
				b.poison(fmt.Sprintf("element %d is not a document object", i))
				return b
			}
			b.docs = append(b.docs, elem)
		}
		return b
	}

	if !isDocument(doc) {
		b.poison("value is not a document object")
		return b
	}
	b.docs = append(b.docs, doc)
	return b
}

// DeleteByID enqueues deletions of the given document ids.
func (b *DocumentsBuilder) DeleteByID(ids ...string) *DocumentsBuilder {
	if b.mutable("document builder reused after commit") {
		b.deleteIDs = append(b.deleteIDs, ids...)
	}
	return b
}

// DeleteByQuery enqueues deletion of every document matching the query.
// The query string is passed through verbatim.
func (b *DocumentsBuilder) DeleteByQuery(q string) *DocumentsBuilder {
	if b.mutable("document builder reused after commit") {
		b.deleteQueries = append(b.deleteQueries, q)
	}
	return b
}

// CommitWithin asks the server to make the batch visible within d instead of
// forcing an immediate index commit.
func (b *DocumentsBuilder) CommitWithin(d time.Duration) *DocumentsBuilder {
	if b.mutable("document builder reused after commit") {
		b.commitWithin = d
	}
	return b
}

// Len returns the number of documents enqueued for adding.
func (b *DocumentsBuilder) Len() int { return len(b.docs) }

func (b *DocumentsBuilder) mutable(msg string) bool {
	if b.consumed {
		if b.err == nil {
			b.err = fmt.Errorf("%w: %s", ErrUsage, msg)
		}
		return false
	}
	return true
}

func (b *DocumentsBuilder) poison(msg string) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrUsage, msg)
	}
}

// Commit posts the accumulated batch to the collection's update endpoint.
// Whether some documents are rejected while others succeed is the server's
// own atomicity model; its verdict is surfaced as-is. An empty builder
// commits as a no-op without I/O.
func (b *DocumentsBuilder) Commit(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { b.col.client.obs.observe("documents.update", start, err) }()

	if b.consumed {
		if b.err != nil {
			return b.err
		}
		return fmt.Errorf("%w: document builder reused after commit", ErrUsage)
	}
	b.consumed = true
	if b.err != nil {
		return b.err
	}

	hasDeletes := len(b.deleteIDs) > 0 || len(b.deleteQueries) > 0
	if len(b.docs) > 0 && hasDeletes {
		return fmt.Errorf("%w: a batch carries either adds or deletes, not both", ErrUsage)
	}
	if len(b.docs) == 0 && !hasDeletes {
		return nil
	}

	params := url.Values{"wt": {"json"}}
	if b.commitWithin > 0 {
		params.Set("commitWithin", strconv.FormatInt(b.commitWithin.Milliseconds(), 10))
	} else {
		params.Set("commit", "true")
	}

	var body any
	if hasDeletes {
		body = map[string]any{"delete": b.deleteCommands()}
	} else {
		body = b.docs
	}

	_, err = b.col.client.exec.Commit(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   b.col.name + "/update",
		Params: params,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("update %q: %w", b.col.name, err)
	}
	return nil
}

func (b *DocumentsBuilder) deleteCommands() any {
	if len(b.deleteQueries) == 0 {
		return b.deleteIDs
	}
	cmds := make([]any, 0, len(b.deleteIDs)+len(b.deleteQueries))
	for _, id := range b.deleteIDs {
		cmds = append(cmds, map[string]string{"id": id})
	}
	for _, q := range b.deleteQueries {
		cmds = append(cmds, map[string]string{"query": q})
	}
	return cmds
}

// isDocument reports whether v encodes as a JSON object.
func isDocument(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Map || t.Kind() == reflect.Struct
}
