// Package solrtest runs an in-process fake Solr node. It speaks just enough
// of the admin, schema, update and select protocols to back driver tests and
// local development, records every request for wire-level assertions, and
// can be told to fail on demand.
package solrtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Request is one recorded HTTP exchange.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Body   []byte
}

type collection struct {
	fields []map[string]any
	docs   []map[string]any
}

// Server is a fake Solr node.
type Server struct {
	ts     *httptest.Server
	router chi.Router

	mu          sync.Mutex
	collections map[string]*collection
	requests    []Request
	failures    []fault
}

type fault struct {
	code int
	msg  string
}

// New starts a fake node on a random local port. Call Close when done.
func New() *Server {
	s := NewDetached()
	s.ts = httptest.NewServer(s.router)
	return s
}

// NewDetached builds a fake node without binding a listener; serve Handler()
// wherever needed (the CLI mock mode binds it to a configured port).
func NewDetached() *Server {
	s := &Server{collections: make(map[string]*collection)}

	r := chi.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/solr/admin/collections", s.handleAdmin)
	r.Get("/solr/admin/info/system", s.handleSystemInfo)
	r.Route("/solr/{collection}", func(r chi.Router) {
		r.Get("/select", s.handleSelect)
		r.Post("/select", s.handleSelect)
		r.Post("/update", s.handleUpdate)
		r.Get("/schema", s.handleSchemaGet)
		r.Post("/schema", s.handleSchemaUpdate)
		r.Get("/schema/fields", s.handleSchemaFields)
	})
	s.router = r
	return s
}

// Handler exposes the node's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close shuts the node down. No-op for a detached node.
func (s *Server) Close() {
	if s.ts != nil {
		s.ts.Close()
	}
}

// URL returns the node base URL (no /solr suffix).
func (s *Server) URL() string { return s.ts.URL }

// HostPort returns the listen address split for client construction.
func (s *Server) HostPort() (string, int) {
	host, portStr, _ := net.SplitHostPort(strings.TrimPrefix(s.ts.URL, "http://"))
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// FailNext makes the next request answer with an error envelope carrying the
// given code and message. Queued failures apply in order.
func (s *Server) FailNext(code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, fault{code: code, msg: msg})
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or nil.
func (s *Server) LastRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	r := s.requests[len(s.requests)-1]
	return &r
}

// Docs returns the documents currently held by a collection.
func (s *Server) Docs(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[name]
	if !ok {
		return nil
	}
	return append([]map[string]any(nil), col.docs...)
}

// Seed creates a collection pre-filled with documents.
func (s *Server) Seed(name string, docs ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &collection{docs: docs}
}

// record captures the request and serves a queued failure if one is pending.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
		}
		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			rec.Form, _ = url.ParseQuery(string(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		var pending *fault
		if len(s.failures) > 0 {
			pending = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if pending != nil {
			writeError(w, pending.code, pending.msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.URL.Query().Get("name")
	switch action := r.URL.Query().Get("action"); action {
	case "CREATE":
		if name == "" {
			writeError(w, 400, "missing name")
			return
		}
		if _, ok := s.collections[name]; ok {
			writeError(w, 400, fmt.Sprintf("collection already exists: %s", name))
			return
		}
		s.collections[name] = &collection{}
		writeOK(w, map[string]any{"success": map[string]any{}})
	case "DELETE":
		if _, ok := s.collections[name]; !ok {
			writeError(w, 400, fmt.Sprintf("Could not find collection : %s", name))
			return
		}
		delete(s.collections, name)
		writeOK(w, map[string]any{"success": map[string]any{}})
	case "LIST":
		names := make([]string, 0, len(s.collections))
		for n := range s.collections {
			names = append(names, n)
		}
		writeOK(w, map[string]any{"collections": names})
	default:
		writeError(w, 400, fmt.Sprintf("unknown action: %s", action))
	}
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]any{
		"solr_home": "/var/solr",
		"lucene":    map[string]any{"solr-spec-version": "8.5.2"},
	})
}

func (s *Server) col(w http.ResponseWriter, r *http.Request) *collection {
	name := chi.URLParam(r, "collection")
	col, ok := s.collections[name]
	if !ok {
		writeError(w, 404, fmt.Sprintf("no such core: %s", name))
		return nil
	}
	return col
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(w, r)
	if col == nil {
		return
	}

	params := r.URL.Query()
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		params, _ = url.ParseQuery(string(body))
	}

	q := params.Get("q")
	if q == "" {
		writeError(w, 400, "missing query")
		return
	}

	matched := matchDocs(col.docs, q)
	numFound := len(matched)

	start := atoiDefault(params.Get("start"), 0)
	if start < len(matched) {
		matched = matched[start:]
	} else {
		matched = nil
	}
	if rows := atoiDefault(params.Get("rows"), -1); rows >= 0 && rows < len(matched) {
		matched = matched[:rows]
	}
	if matched == nil {
		matched = []map[string]any{}
	}

	writeOK(w, map[string]any{
		"response": map[string]any{
			"numFound": numFound,
			"start":    start,
			"docs":     project(matched, params.Get("fl")),
		},
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(w, r)
	if col == nil {
		return
	}

	body, _ := io.ReadAll(r.Body)

	var docs []map[string]any
	if err := json.Unmarshal(body, &docs); err == nil {
		col.docs = append(col.docs, docs...)
		writeOK(w, nil)
		return
	}

	var cmd struct {
		Delete json.RawMessage `json:"delete"`
	}
	if err := json.Unmarshal(body, &cmd); err != nil || cmd.Delete == nil {
		writeError(w, 400, "unknown update command")
		return
	}
	s.applyDelete(col, cmd.Delete)
	writeOK(w, nil)
}

func (s *Server) applyDelete(col *collection, raw json.RawMessage) {
	drop := func(pred func(map[string]any) bool) {
		kept := col.docs[:0]
		for _, d := range col.docs {
			if !pred(d) {
				kept = append(kept, d)
			}
		}
		col.docs = kept
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		for _, id := range ids {
			drop(func(d map[string]any) bool { return fmt.Sprint(d["id"]) == id })
		}
		return
	}

	var cmds []struct {
		ID    string `json:"id"`
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &cmds); err != nil {
		var one struct {
			ID    string `json:"id"`
			Query string `json:"query"`
		}
		if json.Unmarshal(raw, &one) != nil {
			return
		}
		cmds = append(cmds, one)
	}
	for _, c := range cmds {
		switch {
		case c.ID != "":
			id := c.ID
			drop(func(d map[string]any) bool { return fmt.Sprint(d["id"]) == id })
		case c.Query != "":
			q := c.Query
			drop(func(d map[string]any) bool { return matches(d, q) })
		}
	}
}

func (s *Server) handleSchemaGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(w, r)
	if col == nil {
		return
	}
	writeOK(w, map[string]any{
		"schema": map[string]any{"name": "default-config", "fields": col.fields},
	})
}

func (s *Server) handleSchemaFields(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(w, r)
	if col == nil {
		return
	}
	fields := col.fields
	if fields == nil {
		fields = []map[string]any{}
	}
	writeOK(w, map[string]any{"fields": fields})
}

func (s *Server) handleSchemaUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(w, r)
	if col == nil {
		return
	}

	body, _ := io.ReadAll(r.Body)
	var ops []map[string]json.RawMessage
	if err := json.Unmarshal(body, &ops); err != nil {
		writeError(w, 400, "schema update body must be an array of operations")
		return
	}

	for i, op := range ops {
		for action, raw := range op {
			switch action {
			case "add-field", "replace-field":
				var f map[string]any
				if err := json.Unmarshal(raw, &f); err != nil || f["name"] == nil {
					writeError(w, 400, fmt.Sprintf("operation %d: invalid field", i))
					return
				}
				col.fields = upsertField(col.fields, f)
			case "delete-field":
				var f struct {
					Name string `json:"name"`
				}
				_ = json.Unmarshal(raw, &f)
				col.fields = removeField(col.fields, f.Name)
			default:
				writeError(w, 400, fmt.Sprintf("operation %d: unknown action %s", i, action))
				return
			}
		}
	}
	writeOK(w, nil)
}

func upsertField(fields []map[string]any, f map[string]any) []map[string]any {
	for i, existing := range fields {
		if existing["name"] == f["name"] {
			fields[i] = f
			return fields
		}
	}
	return append(fields, f)
}

func removeField(fields []map[string]any, name string) []map[string]any {
	kept := fields[:0]
	for _, f := range fields {
		if f["name"] != name {
			kept = append(kept, f)
		}
	}
	return kept
}

// matchDocs supports the two query shapes the driver tests need: "*:*" and
// exact "field:value" matching.
func matchDocs(docs []map[string]any, q string) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		if matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

func matches(doc map[string]any, q string) bool {
	if q == "*:*" {
		return true
	}
	field, value, ok := strings.Cut(q, ":")
	if !ok {
		return false
	}
	v, ok := doc[field]
	if !ok {
		return value == "*"
	}
	return value == "*" || fmt.Sprint(v) == value
}

func project(docs []map[string]any, fl string) []map[string]any {
	if fl == "" {
		return docs
	}
	fields := strings.Split(fl, ",")
	out := make([]map[string]any, len(docs))
	for i, d := range docs {
		proj := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := d[strings.TrimSpace(f)]; ok {
				proj[strings.TrimSpace(f)] = v
			}
		}
		out[i] = proj
	}
	return out
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeOK(w http.ResponseWriter, body map[string]any) {
	resp := map[string]any{
		"responseHeader": map[string]any{"status": 0, "QTime": 1},
	}
	for k, v := range body {
		resp[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"responseHeader": map[string]any{"status": code, "QTime": 1},
		"error":          map[string]any{"msg": msg, "code": code},
	})
}
