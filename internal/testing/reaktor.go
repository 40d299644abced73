// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

// Handler answers one call to the fake reaktor. A non-nil rpcErr is
// sent as the error member of the response.
type Handler func(params []any) (result any, rpcErr map[string]any)

// Request is a call received by the fake reaktor.
type Request struct {
	Method string
	Params []any
	ID     string
	Header http.Header
}

// Document is a deliverable served by the fake reaktor.
type Document struct {
	Filename string
	Content  []byte
}

// FakeReaktor is an HTTP server speaking the reaktor JSON-RPC
// protocol with canned handlers.
type FakeReaktor struct {
	*httptest.Server

	mu        sync.Mutex
	handlers  map[string]Handler
	requests  []Request
	downloads []*http.Request
	documents map[string]Document
	version   string

	// Status, when non-zero, is returned for every call along with
	// Body instead of invoking the handlers.
	Status int
	Body   []byte

	// WrongID makes the server echo a different id than requested.
	WrongID bool
}

// NewFakeReaktor starts a fake reaktor. Unknown methods answer with
// an ILLEGAL_CALL error.
func NewFakeReaktor() *FakeReaktor {
	f := &FakeReaktor{
		handlers:  make(map[string]Handler),
		documents: make(map[string]Document),
		version:   "4.2.1",
	}
	r := mux.NewRouter()
	r.HandleFunc("/json/rpc", f.serveRPC).Methods(http.MethodPost)
	r.HandleFunc("/reaktor/version.txt", f.serveVersion).Methods(http.MethodGet)
	r.HandleFunc("/delivery/document/{id}", f.serveDocument).Methods(http.MethodGet)
	r.HandleFunc("/delivery/document/{id}/metadata/{exporter}", f.serveDocument).Methods(http.MethodGet)
	f.Server = httptest.NewServer(r)
	return f
}

// Handle registers the handler for method.
func (f *FakeReaktor) Handle(method string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// Result registers a handler always returning result.
func (f *FakeReaktor) Result(method string, result any) {
	f.Handle(method, func([]any) (any, map[string]any) {
		return result, nil
	})
}

// Fail registers a handler always failing with the given server
// error code and message.
func (f *FakeReaktor) Fail(method, code, msg string) {
	f.Handle(method, func([]any) (any, map[string]any) {
		return nil, map[string]any{"reaktorErrorCode": code, "msg": msg, "callId": "call-" + code}
	})
}

// AddDocument makes a deliverable available for download.
func (f *FakeReaktor) AddDocument(id string, doc Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[id] = doc
}

// SetVersion sets the version reported by version.txt.
func (f *FakeReaktor) SetVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// Requests returns the calls received so far.
func (f *FakeReaktor) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Count returns the number of calls received for method.
func (f *FakeReaktor) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

// Downloads returns the download requests received so far.
func (f *FakeReaktor) Downloads() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.downloads...)
}

// Host returns the host the server listens on.
func (f *FakeReaktor) Host() string {
	host, _, _ := net.SplitHostPort(f.Listener.Addr().String())
	return host
}

// Port returns the port the server listens on.
func (f *FakeReaktor) Port() int {
	_, port, _ := net.SplitHostPort(f.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

func (f *FakeReaktor) serveRPC(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
		Params []any  `json:"params"`
		ID     string `json:"id"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, Request{
		Method: req.Method,
		Params: req.Params,
		ID:     req.ID,
		Header: r.Header.Clone(),
	})
	handler, ok := f.handlers[req.Method]
	status, body, wrongID := f.Status, f.Body, f.WrongID
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	resp := map[string]any{"id": req.ID}
	if wrongID {
		resp["id"] = req.ID + "x"
	}
	if !ok {
		resp["error"] = map[string]any{
			"reaktorErrorCode": "ILLEGAL_CALL",
			"msg":              fmt.Sprintf("no such method %s", req.Method),
		}
	} else if result, rpcErr := handler(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (f *FakeReaktor) serveVersion(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	v := f.version
	f.mu.Unlock()
	fmt.Fprintf(w, "build: 1234\nversion: %s\n", v)
}

func (f *FakeReaktor) serveDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	f.downloads = append(f.downloads, r)
	doc, ok := f.documents[id]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("token") == "" {
		http.Error(w, "missing token", http.StatusForbidden)
		return
	}
	if doc.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment;filename="%s"`, doc.Filename))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	_, _ = w.Write(doc.Content)
}
