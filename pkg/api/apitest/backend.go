// Package apitest provides an in-process fake of the Radiant backend for
// tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/NicolasHaas/radiant/pkg/model"
)

// Request is a request the fake received.
type Request struct {
	Path    string
	Header  http.Header
	Payload map[string]any
}

type account struct {
	user     model.User
	password string
}

// Backend is a fake user service. Register and login behave like the real
// endpoints for well-formed input.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account
	requests []Request
	nextID   int
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{accounts: make(map[string]account), nextID: 1}

	r := mux.NewRouter()
	r.HandleFunc("/api/users/register", b.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", b.handleLogin).Methods(http.MethodPost)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Requests returns what the backend has received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// AddAccount seeds an account without going through register.
func (b *Backend) AddAccount(u model.User, password string) model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", b.nextID)
		b.nextID++
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
		u.UpdatedAt = u.CreatedAt
	}
	b.accounts[u.Username] = account{user: u, password: password}
	return u
}

func (b *Backend) record(r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	ok := json.NewDecoder(r.Body).Decode(&payload) == nil

	b.mu.Lock()
	b.requests = append(b.requests, Request{Path: r.URL.Path, Header: r.Header.Clone(), Payload: payload})
	b.mu.Unlock()
	return payload, ok
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	payload, ok := b.record(r)
	if !ok || r.Header.Get("Content-Type") != "application/json" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	username, _ := payload["username"].(string)
	password, _ := payload["password"].(string)
	school, _ := payload["school"].(string)
	interest, _ := payload["interest"].(string)
	if username == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username and password are required"})
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[username]; exists {
		b.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		return
	}
	b.mu.Unlock()

	u := b.AddAccount(model.User{Username: username, School: school, Interest: interest}, password)
	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload, ok := b.record(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	username, _ := payload["username"].(string)
	password, _ := payload["password"].(string)

	b.mu.Lock()
	acc, exists := b.accounts[username]
	b.mu.Unlock()
	if !exists || acc.password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}

	u := acc.user
	u.Token = "token-" + u.ID
	writeJSON(w, http.StatusOK, u)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
