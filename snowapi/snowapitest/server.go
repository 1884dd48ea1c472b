// Package snowapitest provides an in-process fake of the SQL API statements
// endpoint. Replies are scripted per route and every request is recorded.
package snowapitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// APIPath is the prefix the statements routes are mounted under.
const APIPath = "/api/v2"

// Reply is one scripted response. Body is written as-is when it is a string
// or []byte and JSON-encoded otherwise.
type Reply struct {
	Status int
	Header http.Header
	Body   any
}

// JSON returns a reply with the given status and JSON body.
func JSON(status int, body any) Reply { return Reply{Status: status, Body: body} }

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server fakes the statements endpoint. Unscripted routes answer 404.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	submits    []Reply
	statuses   map[string][]Reply
	partitions map[string]map[int]Reply
	cancels    map[string]Reply
	requests   []Request
}

// NewServer starts a fake closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		statuses:   make(map[string][]Reply),
		partitions: make(map[string]map[int]Reply),
		cancels:    make(map[string]Reply),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Host is the base URL to configure the client with.
func (s *Server) Host() string { return s.URL + APIPath }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(APIPath+"/statements", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/{handle}", s.handleStatus)
		r.Post("/{handle}/cancel", s.handleCancel)
	})
	return r
}

// QueueSubmit scripts replies to successive submissions.
func (s *Server) QueueSubmit(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits = append(s.submits, replies...)
}

// QueueStatus scripts replies to successive status polls of handle. The last
// reply keeps being served once the queue is down to one.
func (s *Server) QueueStatus(handle string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[handle] = append(s.statuses[handle], replies...)
}

// SetPartition scripts the reply for partition n of handle.
func (s *Server) SetPartition(handle string, n int, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.partitions[handle] == nil {
		s.partitions[handle] = make(map[int]Reply)
	}
	s.partitions[handle][n] = reply
}

// SetCancel scripts the reply to cancelling handle.
func (s *Server) SetCancel(handle string, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[handle] = reply
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var reply Reply
	ok := len(s.submits) > 0
	if ok {
		reply = s.submits[0]
		s.submits = s.submits[1:]
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "no submission scripted")
		return
	}
	write(w, reply)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if p := r.URL.Query().Get("partition"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			write(w, JSON(http.StatusBadRequest, map[string]string{"message": "bad partition"}))
			return
		}
		s.mu.Lock()
		reply, ok := s.partitions[handle][n]
		s.mu.Unlock()
		if !ok {
			notFound(w, "no partition scripted")
			return
		}
		write(w, reply)
		return
	}

	s.mu.Lock()
	queue := s.statuses[handle]
	var reply Reply
	ok := len(queue) > 0
	if ok {
		reply = queue[0]
		if len(queue) > 1 {
			s.statuses[handle] = queue[1:]
		}
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "no status scripted")
		return
	}
	write(w, reply)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	s.mu.Lock()
	reply, ok := s.cancels[handle]
	s.mu.Unlock()
	if !ok {
		notFound(w, "no cancel scripted")
		return
	}
	write(w, reply)
}

func notFound(w http.ResponseWriter, msg string) {
	write(w, JSON(http.StatusNotFound, map[string]string{"message": msg}))
}

func write(w http.ResponseWriter, reply Reply) {
	for k, vs := range reply.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body []byte
	switch b := reply.Body.(type) {
	case nil:
	case []byte:
		body = b
	case string:
		body = []byte(b)
	default:
		var err error
		body, err = json.Marshal(b)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	w.Write(body)
}
