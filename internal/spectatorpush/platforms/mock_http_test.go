package platforms

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

type push struct {
	header http.Header
	body   map[string]any
}

// receiver stands in for a platform endpoint. It records every push and
// answers each with status and reply.
type receiver struct {
	status int
	reply  string

	mu     sync.Mutex
	pushes []push
}

func newReceiver(status int, reply string) *receiver {
	return &receiver{status: status, reply: reply}
}

func (rc *receiver) client() *HTTPClient {
	return &HTTPClient{inner: &http.Client{Transport: rc}}
}

func (rc *receiver) RoundTrip(req *http.Request) (*http.Response, error) {
	var body map[string]any
	if req.Body != nil {
		defer req.Body.Close()
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
	}
	rc.mu.Lock()
	rc.pushes = append(rc.pushes, push{header: req.Header.Clone(), body: body})
	rc.mu.Unlock()
	return &http.Response{
		StatusCode: rc.status,
		Body:       io.NopCloser(strings.NewReader(rc.reply)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (rc *receiver) only(t *testing.T) push {
	t.Helper()
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if len(rc.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(rc.pushes))
	}
	return rc.pushes[0]
}
