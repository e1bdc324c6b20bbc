package solrdex

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/solrdex/internal/solrtest"
)

const okEnvelope = `{"responseHeader":{"status":0,"QTime":1}}`

// fakeDoer serves canned responses and captures the outgoing requests.
type fakeDoer struct {
	reqs   []*http.Request
	bodies []string

	status int
	resp   string
	err    error
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.reqs = append(d.reqs, req)
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	d.bodies = append(d.bodies, body)

	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := d.resp
	if resp == "" {
		resp = okEnvelope
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(resp)),
	}, nil
}

func (d *fakeDoer) calls() int { return len(d.reqs) }

func (d *fakeDoer) lastReq(t *testing.T) *http.Request {
	t.Helper()
	if len(d.reqs) == 0 {
		t.Fatal("no requests were made")
	}
	return d.reqs[len(d.reqs)-1]
}

func (d *fakeDoer) lastBody(t *testing.T) string {
	t.Helper()
	if len(d.bodies) == 0 {
		t.Fatal("no requests were made")
	}
	return d.bodies[len(d.bodies)-1]
}

// newTestClient builds a client over a capturing transport.
func newTestClient(t *testing.T, doer *fakeDoer) *Client {
	t.Helper()
	c, err := New("http", "localhost", 8983, WithTransport(doer))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// newMockClient builds a client against an in-process fake node.
func newMockClient(t *testing.T, node *solrtest.Server) *Client {
	t.Helper()
	host, port := node.HostPort()
	c, err := New("http", host, port)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}
