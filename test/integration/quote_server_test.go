//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// fakeQuoteServer is a jsonplaceholder-style posts endpoint.
type fakeQuoteServer struct {
	*httptest.Server

	mu          sync.Mutex
	posts       []map[string]any
	unreachable bool
	pushed      []map[string]any
}

func newFakeQuoteServer() *fakeQuoteServer {
	f := &fakeQuoteServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", f.list)
	mux.HandleFunc("POST /posts", f.create)

	f.Server = httptest.NewServer(mux)

	return f
}

func (f *fakeQuoteServer) setPosts(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.posts = f.posts[:0]
	for i, title := range titles {
		f.posts = append(f.posts, map[string]any{"id": i + 1, "userId": 1, "title": title, "body": ""})
	}
}

func (f *fakeQuoteServer) setUnreachable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unreachable = v
}

func (f *fakeQuoteServer) pushedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	titles := make([]string, 0, len(f.pushed))
	for _, p := range f.pushed {
		if title, ok := p["title"].(string); ok {
			titles = append(titles, title)
		}
	}

	return titles
}

func (f *fakeQuoteServer) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(append([]map[string]any{}, f.posts...))
}

func (f *fakeQuoteServer) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	f.pushed = append(f.pushed, body)
	body["id"] = 101

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(body)
}
