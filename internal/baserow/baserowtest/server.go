// Package baserowtest provides an in-memory Baserow API for tests.
package baserowtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/steveyegge/airbridge/internal/schema"
)

// Token is the database token the fake server accepts.
const Token = "test-baserow-token"

// Call records one request the server handled.
type Call struct {
	Method  string
	Path    string
	TableID int
	Items   int
}

// Upload is a file stored through the upload endpoint.
type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Content     []byte
}

type failure struct {
	status int
	body   string
}

type table struct {
	fields []schema.Field
	rows   map[int]map[string]any
	order  []int
}

// Server is a fake Baserow instance backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[int]*table
	nextRow  int
	calls    []Call
	uploads  []Upload
	failures map[string]failure
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		tables:   make(map[int]*table),
		nextRow:  1,
		failures: make(map[string]failure),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.auth)
	api.HandleFunc("/database/fields/table/{table:[0-9]+}/", s.listFields).Methods(http.MethodGet)
	api.HandleFunc("/database/rows/table/{table:[0-9]+}/batch/", s.batchCreate).Methods(http.MethodPost)
	api.HandleFunc("/database/rows/table/{table:[0-9]+}/batch/", s.batchUpdate).Methods(http.MethodPatch)
	api.HandleFunc("/user-files/upload-file/", s.upload).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddTable registers a table with its field schema.
func (s *Server) AddTable(id int, fields ...schema.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[id] = &table{fields: fields, rows: make(map[int]map[string]any)}
}

// Fail makes the next request with method on the given route kind
// ("fields", "create", "update", "upload") fail with status and body.
func (s *Server) Fail(kind string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[kind] = failure{status: status, body: body}
}

// Rows returns the rows of a table in creation order.
func (s *Server) Rows(tableID int) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, t.rows[id])
	}
	return rows
}

// Row returns one row by id.
func (s *Server) Row(tableID, rowID int) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[tableID]; ok {
		return t.rows[rowID]
	}
	return nil
}

// Calls returns the requests handled so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the calls with the given method and table.
func (s *Server) CallsOf(method string, tableID int) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.TableID == tableID {
			out = append(out, c)
		}
	}
	return out
}

// Uploads returns the stored files.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "ERROR_INVALID_TOKEN"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// takeFailure pops an injected failure. Callers hold s.mu.
func (s *Server) takeFailure(kind string) (failure, bool) {
	f, ok := s.failures[kind]
	if ok {
		delete(s.failures, kind)
	}
	return f, ok
}

func (s *Server) tableFor(w http.ResponseWriter, r *http.Request) (*table, int, bool) {
	id, _ := strconv.Atoi(mux.Vars(r)["table"])
	t, ok := s.tables[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "ERROR_TABLE_DOES_NOT_EXIST"})
		return nil, id, false
	}
	return t, id, true
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, id, ok := s.tableFor(w, r)
	if !ok {
		return
	}
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, TableID: id})
	if f, ok := s.takeFailure("fields"); ok {
		http.Error(w, f.body, f.status)
		return
	}
	writeJSON(w, http.StatusOK, t.fields)
}

type batch struct {
	Items []map[string]any `json:"items"`
}

func decodeBatch(r *http.Request) (batch, error) {
	var b batch
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(&b)
	return b, err
}

func (s *Server) batchCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, id, ok := s.tableFor(w, r)
	if !ok {
		return
	}
	b, err := decodeBatch(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, TableID: id, Items: len(b.Items)})
	if f, ok := s.takeFailure("create"); ok {
		http.Error(w, f.body, f.status)
		return
	}

	out := make([]map[string]any, 0, len(b.Items))
	for _, item := range b.Items {
		rowID := s.nextRow
		s.nextRow++

		row := map[string]any{"id": rowID}
		for k, v := range item {
			row[k] = v
		}
		t.rows[rowID] = row
		t.order = append(t.order, rowID)
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) batchUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, id, ok := s.tableFor(w, r)
	if !ok {
		return
	}
	b, err := decodeBatch(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, TableID: id, Items: len(b.Items)})
	if f, ok := s.takeFailure("update"); ok {
		http.Error(w, f.body, f.status)
		return
	}

	out := make([]map[string]any, 0, len(b.Items))
	for _, item := range b.Items {
		rowID, err := rowIDOf(item["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		row, ok := t.rows[rowID]
		if !ok {
			http.Error(w, fmt.Sprintf(`{"error":"ERROR_ROW_DOES_NOT_EXIST","detail":"row %d"}`, rowID), http.StatusNotFound)
			return
		}
		for k, v := range item {
			if k != "id" {
				row[k] = v
			}
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func rowIDOf(v any) (int, error) {
	switch id := v.(type) {
	case json.Number:
		n, err := id.Int64()
		return int(n), err
	case float64:
		return int(id), nil
	}
	return 0, fmt.Errorf("invalid row id %v", v)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
	if f, ok := s.takeFailure("upload"); ok {
		http.Error(w, f.body, f.status)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := fmt.Sprintf("stored_%d_%s", len(s.uploads)+1, header.Filename)
	s.uploads = append(s.uploads, Upload{
		Name:        name,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "original_name": header.Filename})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
