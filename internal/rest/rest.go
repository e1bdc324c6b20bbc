// Package rest implements the single commit path shared by every solrdex
// builder: it assembles one HTTP request against a Solr node, performs it,
// and interprets the uniform response envelope.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/solrdex/internal/domain"
)

// Doer is the transport collaborator. *http.Client satisfies it; tests
// substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is one assembled builder commit, not yet on the wire.
// Path is relative to the /solr prefix ("admin/collections",
// "users/select", ...). Exactly one of Body and Form may be set.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Body   any        // JSON-encoded when non-nil
	Form   url.Values // form-encoded POST body (long select queries)
}

// Header mirrors Solr's responseHeader.
type Header struct {
	Status int `json:"status"`
	QTime  int `json:"QTime"`
}

// Result is a successful envelope: the header plus the decoded body with
// the header itself removed.
type Result struct {
	Header Header
	Body   map[string]json.RawMessage
}

// Decode unmarshals one top-level key of the result body into v.
// A missing key leaves v untouched and returns false.
func (r *Result) Decode(key string, v any) (bool, error) {
	raw, ok := r.Body[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: %q: %w", domain.ErrDecode, key, err)
	}
	return true, nil
}

// Executor performs assembled requests. It keeps no state besides the base
// URL and the transport, so one instance is safely shared by concurrent
// builder commits.
type Executor struct {
	base string // scheme://host:port/solr
	doer Doer
}

// New creates an Executor for a Solr node.
func New(scheme, host string, port int, doer Doer) *Executor {
	return &Executor{
		base: fmt.Sprintf("%s://%s:%d/solr", scheme, host, port),
		doer: doer,
	}
}

// BaseURL returns the node URL including the /solr prefix.
func (e *Executor) BaseURL() string { return e.base }

// Commit performs one request and interprets the envelope. Any non-zero
// responseHeader.status or present error key yields a ServerError; the call
// never fabricates partial success.
func (e *Executor) Commit(ctx context.Context, req Request) (Result, error) {
	httpReq, err := e.buildRequest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	resp, err := e.doer.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	return parseEnvelope(resp)
}

func (e *Executor) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := e.base + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Params) > 0 {
		u += "?" + req.Params.Encode()
	}

	var body *bytes.Buffer
	switch {
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request body: %w", domain.ErrUsage, err)
		}
		body = bytes.NewBuffer(b)
	case req.Form != nil:
		body = bytes.NewBufferString(req.Form.Encode())
	default:
		body = &bytes.Buffer{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrUsage, err)
	}

	switch {
	case req.Body != nil:
		httpReq.Header.Set("Content-Type", "application/json")
	case req.Form != nil:
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}

// envelope is the uniform wrapper present in every Solr response.
type envelope struct {
	Header *Header       `json:"responseHeader"`
	Error  *domain.Fault `json:"error"`
}

func parseEnvelope(resp *http.Response) (Result, error) {
	dec := json.NewDecoder(resp.Body)

	var body map[string]json.RawMessage
	if err := dec.Decode(&body); err != nil {
		return Result{}, fmt.Errorf("%w: response is not a JSON object: %w", domain.ErrDecode, err)
	}

	var env envelope
	if raw, ok := body["responseHeader"]; ok {
		if err := json.Unmarshal(raw, &env.Header); err != nil {
			return Result{}, fmt.Errorf("%w: responseHeader: %w", domain.ErrDecode, err)
		}
	}
	if raw, ok := body["error"]; ok {
		if err := json.Unmarshal(raw, &env.Error); err != nil {
			return Result{}, fmt.Errorf("%w: error object: %w", domain.ErrDecode, err)
		}
	}

	if env.Error != nil {
		return Result{}, domain.NewServerError(env.Error.Code, env.Error.Msg)
	}

	var header Header
	if env.Header != nil {
		header = *env.Header
	}
	if header.Status != 0 {
		return Result{}, domain.NewServerError(header.Status, "non-zero response status")
	}
	// Some servers answer errors with an HTTP status but no JSON error
	// object; do not treat that as success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, domain.NewServerError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	delete(body, "responseHeader")
	return Result{Header: header, Body: body}, nil
}
