package solrdex

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/solrdex/internal/solrtest"
)

type user struct {
	Name string  `json:"name"`
	Age  float64 `json:"age"`
}

func TestDocumentsAdd_Accumulates(t *testing.T) {
	one := &fakeDoer{}
	c1 := newTestClient(t, one)
	err := NewCollection(c1, "users").Documents().
		Add(user{Name: "Some", Age: 19}).
		Add(user{Name: "Dude", Age: 21}).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	batch := &fakeDoer{}
	c2 := newTestClient(t, batch)
	err = NewCollection(c2, "users").Documents().
		Add([]user{{Name: "Some", Age: 19}, {Name: "Dude", Age: 21}}).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if one.lastBody(t) != batch.lastBody(t) {
		t.Errorf("chained adds sent %s, slice add sent %s", one.lastBody(t), batch.lastBody(t))
	}

	var docs []user
	if err := json.Unmarshal([]byte(one.lastBody(t)), &docs); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "Some" || docs[1].Name != "Dude" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestDocumentsCommit_Params(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		Add(map[string]any{"id": "1"}).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	req := doer.lastReq(t)
	if req.Method != "POST" || req.URL.Path != "/solr/users/update" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("commit") != "true" || q.Get("wt") != "json" {
		t.Errorf("query = %s", req.URL.RawQuery)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestDocumentsCommitWithin(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		Add(map[string]any{"id": "1"}).
		CommitWithin(5 * time.Second).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	q := doer.lastReq(t).URL.Query()
	if q.Get("commitWithin") != "5000" {
		t.Errorf("commitWithin = %q, want 5000", q.Get("commitWithin"))
	}
	if q.Has("commit") {
		t.Errorf("commit param present alongside commitWithin: %s", q.Encode())
	}
}

func TestDocumentsAdd_RejectsNonObjects(t *testing.T) {
	cases := []struct {
		name string
		doc  any
	}{
		{"scalar", 42},
		{"string", "not a document"},
		{"bytes", []byte(`{"id":"1"}`)},
		{"scalar element", []any{map[string]any{"id": "1"}, 7}},
		{"nil element", []any{nil}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doer := &fakeDoer{}
			c := newTestClient(t, doer)

			err := NewCollection(c, "users").Documents().Add(tc.doc).Commit(context.Background())
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("err = %v, want ErrUsage", err)
			}
			if doer.calls() != 0 {
				t.Errorf("calls = %d, want 0", doer.calls())
			}
		})
	}
}

func TestDocumentsCommit_EmptyIsNoop(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	if err := NewCollection(c, "users").Documents().Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if doer.calls() != 0 {
		t.Errorf("calls = %d, want 0", doer.calls())
	}
}

func TestDocumentsCommit_Reuse(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)
	b := NewCollection(c, "users").Documents().Add(map[string]any{"id": "1"})

	if err := b.Commit(context.Background()); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	err := b.Add(map[string]any{"id": "2"}).Commit(context.Background())
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if doer.calls() != 1 {
		t.Errorf("calls = %d, want 1", doer.calls())
	}
}

func TestDocumentsCommit_TransportErrorNotRetried(t *testing.T) {
	doer := &fakeDoer{err: errors.New("connection refused")}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		Add(map[string]any{"id": "1"}).
		Commit(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if doer.calls() != 1 {
		t.Errorf("calls = %d, want exactly 1", doer.calls())
	}
}

func TestDocumentsCommit_MixedAddsAndDeletes(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		Add(map[string]any{"id": "1"}).
		DeleteByID("2").
		Commit(context.Background())
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
	if doer.calls() != 0 {
		t.Errorf("calls = %d, want 0", doer.calls())
	}
}

func TestDocumentsDeleteByID_Body(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		DeleteByID("1", "2").
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	want := `{"delete":["1","2"]}`
	if body := doer.lastBody(t); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestDocumentsDeleteByQuery_Body(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(t, doer)

	err := NewCollection(c, "users").Documents().
		DeleteByID("1").
		DeleteByQuery("age:21").
		Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	want := `{"delete":[{"id":"1"},{"query":"age:21"}]}`
	if body := doer.lastBody(t); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestDocumentsRoundTrip(t *testing.T) {
	node := solrtest.New()
	defer node.Close()
	node.Seed("users")
	c := newMockClient(t, node)
	col := NewCollection(c, "users")
	ctx := context.Background()

	err := col.Add(map[string]any{"id": "1", "name": "Some"}).
		Add(map[string]any{"id": "2", "name": "Dude"}).
		Commit(ctx)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := len(node.Docs("users")); got != 2 {
		t.Fatalf("docs = %d, want 2", got)
	}

	if err := col.Documents().DeleteByID("1").Commit(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(node.Docs("users")); got != 1 {
		t.Errorf("docs after delete = %d, want 1", got)
	}
}
