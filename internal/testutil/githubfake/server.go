// Package githubfake serves the subset of the GitHub issues API the
// validator uses, backed by memory. It is meant for tests.
package githubfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-github/v68/github"
)

// Comment is a stored issue comment.
type Comment struct {
	ID     int64
	Author string
	Body   string
}

// Server is an in-memory GitHub issues API.
type Server struct {
	// PageSize is the number of comments per list page, ignoring per_page.
	PageSize int
	// Author is the login recorded on comments created through the API.
	Author string
	// Fail makes every request answer with this status when non-zero.
	Fail int

	mu       sync.Mutex
	comments map[int][]Comment
	nextID   int64
	requests []string

	srv *httptest.Server
}

// New starts a fake server that is closed when t finishes.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		PageSize: 30,
		Author:   "github-actions[bot]",
		comments: make(map[int][]Comment),
		nextID:   100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues/{number}/comments", s.list)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/comments", s.create)
	mux.HandleFunc("PATCH /repos/{owner}/{repo}/issues/comments/{id}", s.edit)

	// Enterprise clients prefix every path with /api/v3.
	root := http.NewServeMux()
	root.Handle("/api/v3/", http.StripPrefix("/api/v3", mux))
	root.Handle("/", mux)

	s.srv = httptest.NewServer(s.record(root))
	t.Cleanup(s.srv.Close)
	return s
}

// Client returns a go-github client pointed at the fake server.
func (s *Server) Client() *github.Client {
	client := github.NewClient(s.srv.Client())
	u, _ := url.Parse(s.srv.URL + "/")
	client.BaseURL = u
	return client
}

// URL is the base URL of the fake server. It also serves the GitHub
// Enterprise layout under URL()+"/api/v3".
func (s *Server) URL() string {
	return s.srv.URL
}

// Seed appends a comment to an issue.
func (s *Server) Seed(number int, author, body string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.comments[number] = append(s.comments[number], Comment{ID: s.nextID, Author: author, Body: body})
	return s.nextID
}

// Comments returns a copy of the comments on an issue.
func (s *Server) Comments(number int) []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments[number]...)
}

// Requests returns "METHOD path" for every request served, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		fail := s.Fail
		s.mu.Unlock()

		if fail != 0 {
			w.WriteHeader(fail)
			_, _ = fmt.Fprintf(w, `{"message": "fake failure %d"}`, fail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}

	s.mu.Lock()
	all := s.comments[number]
	start := min((page-1)*s.PageSize, len(all))
	end := min(start+s.PageSize, len(all))
	out := make([]*github.IssueComment, 0, end-start)
	for _, c := range all[start:end] {
		out = append(out, toAPI(c))
	}
	s.mu.Unlock()

	if end < len(all) {
		next := *r.URL
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		w.Header().Set("Link", fmt.Sprintf(`<%s%s>; rel="next"`, s.srv.URL, next.RequestURI()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var in github.IssueComment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := s.Seed(number, s.Author, in.GetBody())
	writeJSON(w, http.StatusCreated, toAPI(Comment{ID: id, Author: s.Author, Body: in.GetBody()}))
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var in github.IssueComment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for number, list := range s.comments {
		for i := range list {
			if list[i].ID == id {
				s.comments[number][i].Body = in.GetBody()
				writeJSON(w, http.StatusOK, toAPI(s.comments[number][i]))
				return
			}
		}
	}
	http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
}

func toAPI(c Comment) *github.IssueComment {
	return &github.IssueComment{
		ID:   github.Ptr(c.ID),
		Body: github.Ptr(c.Body),
		User: &github.User{Login: github.Ptr(c.Author)},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
