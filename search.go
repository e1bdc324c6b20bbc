package solrdex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/solrdex/internal/rest"
)

// Solr nodes reject very long request lines; above this the select request
// switches from GET to a form-encoded POST.
const maxGetQueryLen = 8000

// SearchBuilder accumulates select parameters for one query. Query strings
// are passed through verbatim; only transport-level percent-encoding is
// applied, so Solr query syntax (colons, parentheses, wildcards) survives
// intact. The builder is single-use.
type SearchBuilder struct {
	col *Collection

	query         string
	querySet      bool
	fields        []string
	sort          string
	filterQueries []string
	defType       string
	debug         string
	timeAllowed   time.Duration

	rows     int
	rowsSet  bool
	start    int
	startSet bool

	extra url.Values

	consumed bool
	err      error
}

// Query sets the main query string (the q parameter).
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	if b.mutable() {
		b.query = q
		b.querySet = true
	}
	return b
}

// Fields sets the field list returned for each document (the fl parameter).
func (b *SearchBuilder) Fields(fields ...string) *SearchBuilder {
	if b.mutable() {
		b.fields = append(b.fields, fields...)
	}
	return b
}

// Sort sets the sort specification, e.g. "age desc, name asc".
func (b *SearchBuilder) Sort(spec string) *SearchBuilder {
	if b.mutable() {
		b.sort = spec
	}
	return b
}

// FilterQuery adds a filter query (the fq parameter, repeatable).
func (b *SearchBuilder) FilterQuery(fq string) *SearchBuilder {
	if b.mutable() {
		b.filterQueries = append(b.filterQueries, fq)
	}
	return b
}

// Rows sets the maximum number of documents returned.
func (b *SearchBuilder) Rows(n int) *SearchBuilder {
	if b.mutable() {
		b.rows = n
		b.rowsSet = true
	}
	return b
}

// Start sets the offset into the full result set.
func (b *SearchBuilder) Start(n int) *SearchBuilder {
	if b.mutable() {
		b.start = n
		b.startSet = true
	}
	return b
}

// DefType selects the query parser (lucene, dismax, edismax).
func (b *SearchBuilder) DefType(parser string) *SearchBuilder {
	if b.mutable() {
		b.defType = parser
	}
	return b
}

// Debug enables server-side debug output ("query", "timing", "all", ...).
func (b *SearchBuilder) Debug(kind string) *SearchBuilder {
	if b.mutable() {
		b.debug = kind
	}
	return b
}

// TimeAllowed caps server-side search time; partial results may come back.
func (b *SearchBuilder) TimeAllowed(d time.Duration) *SearchBuilder {
	if b.mutable() {
		b.timeAllowed = d
	}
	return b
}

// Param sets any select parameter without a named setter (facet, cache,
// echoParams, ...). Repeated calls with the same key append.
func (b *SearchBuilder) Param(key, value string) *SearchBuilder {
	if b.mutable() {
		if b.extra == nil {
			b.extra = url.Values{}
		}
		b.extra.Add(key, value)
	}
	return b
}

func (b *SearchBuilder) mutable() bool {
	if b.consumed {
		if b.err == nil {
			b.err = fmt.Errorf("%w: search builder reused after commit", ErrUsage)
		}
		return false
	}
	return true
}

// SearchResult is the decoded select response: the documents plus result-set
// metadata, with the remainder of the envelope (facets, debug, ...) kept raw.
type SearchResult struct {
	NumFound int64
	Start    int64
	MaxScore float64
	Docs     []json.RawMessage

	// Extra holds every envelope key besides response and responseHeader.
	Extra map[string]json.RawMessage
}

// Into unmarshals all documents into v, which must be a pointer to a slice.
func (r *SearchResult) Into(v any) error {
	raw, err := json.Marshal(r.Docs)
	if err != nil {
		return fmt.Errorf("%w: encode docs: %w", ErrDecode, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode docs: %w", ErrDecode, err)
	}
	return nil
}

// Commit issues the select request and returns the parsed result set.
func (b *SearchBuilder) Commit(ctx context.Context) (_ *SearchResult, err error) {
	startT := time.Now()
	defer func() { b.col.client.obs.observe("search", startT, err) }()

	if b.consumed {
		if b.err != nil {
			return nil, b.err
		}
		return nil, fmt.Errorf("%w: search builder reused after commit", ErrUsage)
	}
	b.consumed = true
	if b.err != nil {
		return nil, b.err
	}
	if !b.querySet {
		return nil, fmt.Errorf("search %q: %w: query is required", b.col.name, ErrUsage)
	}

	params := b.buildParams()
	req := rest.Request{
		Method: http.MethodGet,
		Path:   b.col.name + "/select",
		Params: params,
	}
	// Long queries travel in a form-encoded POST body instead of the URL.
	if len(params.Encode()) > maxGetQueryLen {
		req = rest.Request{
			Method: http.MethodPost,
			Path:   b.col.name + "/select",
			Form:   params,
		}
	}

	res, err := b.col.client.exec.Commit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", b.col.name, err)
	}
	return parseSearchResult(res)
}

func (b *SearchBuilder) buildParams() url.Values {
	params := url.Values{}
	for k, vs := range b.extra {
		params[k] = append([]string(nil), vs...)
	}

	params.Set("q", b.query)
	params.Set("wt", "json")
	if len(b.fields) > 0 {
		params.Set("fl", strings.Join(b.fields, ","))
	}
	if b.sort != "" {
		params.Set("sort", b.sort)
	}
	for _, fq := range b.filterQueries {
		params.Add("fq", fq)
	}
	if b.rowsSet {
		params.Set("rows", strconv.Itoa(b.rows))
	}
	if b.startSet {
		params.Set("start", strconv.Itoa(b.start))
	}
	if b.defType != "" {
		params.Set("defType", b.defType)
	}
	if b.debug != "" {
		params.Set("debug", b.debug)
	}
	if b.timeAllowed > 0 {
		params.Set("timeAllowed", strconv.FormatInt(b.timeAllowed.Milliseconds(), 10))
	}
	return params
}

func parseSearchResult(res rest.Result) (*SearchResult, error) {
	var response struct {
		NumFound int64             `json:"numFound"`
		Start    int64             `json:"start"`
		MaxScore float64           `json:"maxScore"`
		Docs     []json.RawMessage `json:"docs"`
	}
	if ok, err := res.Decode("response", &response); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("search: %w: missing response key", ErrDecode)
	}

	extra := make(map[string]json.RawMessage, len(res.Body))
	for k, v := range res.Body {
		if k != "response" {
			extra[k] = v
		}
	}

	return &SearchResult{
		NumFound: response.NumFound,
		Start:    response.Start,
		MaxScore: response.MaxScore,
		Docs:     response.Docs,
		Extra:    extra,
	}, nil
}
