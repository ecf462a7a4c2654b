// Package apitest runs an in-memory implementation of the memory REST API for
// tests, in the spirit of net/http/httptest.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tableflip.dev/diary/pkg/entry"
)

// Claims are carried by tokens the server issues.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type user struct {
	id       string
	email    string
	password string
	nickname string
}

type record struct {
	owner string
	entry entry.Entry
}

// Server is a running in-memory API.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[string]*user
	revoked  map[string]bool
	records  map[entry.ID]*record
	nextID   int
	clock    time.Time
	requests []string
	failures map[string][]int
	hold     map[string]chan struct{}
}

// NewServer starts a server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		users:    map[string]*user{},
		revoked:  map[string]bool{},
		records:  map[entry.ID]*record{},
		clock:    time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		failures: map[string][]int{},
		hold:     map[string]chan struct{}{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/signup", s.signup)
	})

	r.Route("/memory", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/counts", s.counts)
		r.Patch("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})
	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{id: uuid.NewString(), email: email, password: password, nickname: nickname}
}

// Token issues a valid token for a registered user.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()
	if u == nil {
		return ""
	}
	token, err := s.issue(u)
	if err != nil {
		panic(err)
	}
	return token
}

// Revoke makes the server reject token with 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// FailNext makes the next request whose "METHOD /path" starts with prefix
// answer with code. Several calls queue several failures.
func (s *Server) FailNext(prefix string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = append(s.failures[prefix], code)
}

// Hold blocks requests matching prefix until the returned func is called.
func (s *Server) Hold(prefix string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold[prefix] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.hold, prefix)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns "METHOD /path?query" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Seed stores an entry for the user owning email, returning the stored copy.
func (s *Server) Seed(email string, day entry.DateKey, text string) *entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[email]
	if u == nil {
		panic(fmt.Sprintf("apitest: unknown user %s", email))
	}
	e := s.insertLocked(u, day, text, "")
	return &e
}

func (s *Server) insertLocked(u *user, day entry.DateKey, text, image string) entry.Entry {
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	e := entry.Entry{
		ID:        entry.ID(strconv.Itoa(s.nextID)),
		Text:      text,
		ImageURL:  image,
		Date:      day,
		CreatedAt: entry.Timestamp{Time: s.clock},
	}
	s.records[e.ID] = &record{owner: u.id, entry: e}
	return e
}

func (s *Server) issue(u *user) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			line += "?" + r.URL.RawQuery
		}
		s.mu.Lock()
		s.requests = append(s.requests, line)
		var hold chan struct{}
		for prefix, ch := range s.hold {
			if strings.HasPrefix(line, prefix) {
				hold = ch
				break
			}
		}
		code := 0
		for prefix, codes := range s.failures {
			if len(codes) > 0 && strings.HasPrefix(line, prefix) {
				code = codes[0]
				s.failures[prefix] = codes[1:]
				break
			}
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if code != 0 {
			writeError(w, code, http.StatusText(code))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		s.mu.Lock()
		revoked := s.revoked[raw]
		u := s.users[claims.Email]
		s.mu.Unlock()
		if err != nil || revoked || u == nil || u.id != claims.Subject {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u)))
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	u := s.users[in.Email]
	s.mu.Unlock()
	if u == nil || u.password != in.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Email]; ok {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	u := &user{id: uuid.NewString(), email: in.Email, password: in.Password, nickname: in.Nickname}
	s.users[in.Email] = u
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.id, "email": u.email, "nickname": u.nickname})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	day, err := entry.ParseDateKey(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	out := make([]entry.Entry, 0)
	for _, rec := range s.records {
		if rec.owner == u.id && rec.entry.Date == day {
			out = append(out, rec.entry)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) counts(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	month, err := entry.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	out := map[string]int{}
	for _, rec := range s.records {
		if rec.owner == u.id && month.Contains(rec.entry.Date) {
			out[rec.entry.Date.String()]++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	var in struct {
		Text     string `json:"text"`
		ImageURL string `json:"imageUrl"`
		Date     string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := entry.ParseDateKey(in.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	e := s.insertLocked(u, day, in.Text, in.ImageURL)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	var in struct {
		Text     *string `json:"text"`
		ImageURL *string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[entry.ID(chi.URLParam(r, "id"))]
	if !ok || rec.owner != u.id {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if in.Text != nil {
		rec.entry.Text = *in.Text
	}
	if in.ImageURL != nil {
		rec.entry.ImageURL = *in.ImageURL
	}
	writeJSON(w, http.StatusOK, rec.entry)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	id := entry.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.owner != u.id {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	delete(s.records, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
