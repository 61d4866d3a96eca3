// Package client wires the session store, the backend client and on-device
// storage into the flows behind the landing, register and login screens.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NicolasHaas/radiant/pkg/api"
	"github.com/NicolasHaas/radiant/pkg/kv"
	"github.com/NicolasHaas/radiant/pkg/model"
	"github.com/NicolasHaas/radiant/pkg/session"
)

// UsernameKey holds the username of the last successful registration.
const UsernameKey = "username"

// RegisterSuccessMessage is shown after a successful registration.
const RegisterSuccessMessage = "Registration successful!"

// Backend is the subset of *api.Client the engine needs.
type Backend interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
}

var _ Backend = (*api.Client)(nil)

// Dependencies are the collaborators an Engine is built from.
type Dependencies struct {
	Storage kv.Store
	Backend Backend
	Logger  *slog.Logger // default slog.Default()
}

// Landing is the content of the landing screen.
type Landing struct {
	Title   string
	Tagline string
	Motto   string
	Actions []string
}

// Engine is the client's composition root. It owns the session store and
// the storage it persists into.
type Engine struct {
	storage  kv.Store
	backend  Backend
	sessions *session.Store[model.User]
	log      *slog.Logger
}

// NewEngine creates an engine over deps. Call Start before reading state.
func NewEngine(deps Dependencies) *Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		storage:  deps.Storage,
		backend:  deps.Backend,
		sessions: session.New[model.User](deps.Storage, session.WithLogger(log)),
		log:      log,
	}
}

// Open builds an engine from configuration.
func Open(ctx context.Context, cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client: invalid config: %w", err)
	}
	st, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("client: open storage: %w", err)
	}
	backend := api.New(cfg.BackendURL, api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	return NewEngine(Dependencies{Storage: st, Backend: backend}), nil
}

// Start rehydrates the session from storage and returns the result.
func (e *Engine) Start(ctx context.Context) session.State[model.User] {
	e.sessions.LoadUser(ctx)
	st := e.sessions.State()
	if st.LoggedIn() {
		e.log.Info("session restored", "user", st.User.Username)
	}
	return st
}

// Landing returns the landing screen content.
func (e *Engine) Landing() Landing {
	return Landing{
		Title:   model.AppName,
		Tagline: model.AppTagline,
		Motto:   model.AppMotto,
		Actions: []string{"Login", "Register"},
	}
}

// Register validates reg and creates the account. It does not log in. On
// validation failure the backend is not called and the error is
// model.FieldErrors.
func (e *Engine) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	u, err := e.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	e.log.Info("registered", "user", reg.Username)

	if err := e.storage.Set(ctx, UsernameKey, reg.Username); err != nil {
		e.log.Error("failed to remember username", "err", err)
	}
	return u, nil
}

// Login validates creds, authenticates, and logs the returned user in.
func (e *Engine) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	u, err := e.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	e.sessions.Login(*u)
	e.log.Info("logged in", "user", u.Username)
	return u, nil
}

// Logout clears the session. The stored copy is removed in the background.
func (e *Engine) Logout() {
	e.sessions.Logout()
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (e *Engine) CurrentUser() *model.User {
	return e.sessions.State().User
}

// State returns the current session state.
func (e *Engine) State() session.State[model.User] {
	return e.sessions.State()
}

// Subscribe forwards to the session store.
func (e *Engine) Subscribe(fn func(session.State[model.User])) func() {
	return e.sessions.Subscribe(fn)
}

// LastUsername returns the username remembered from the last registration.
func (e *Engine) LastUsername(ctx context.Context) (string, bool) {
	v, ok, err := e.storage.Get(ctx, UsernameKey)
	if err != nil {
		e.log.Debug("read remembered username", "err", err)
		return "", false
	}
	return v, ok
}

// Flush waits for background storage writes queued so far.
func (e *Engine) Flush(ctx context.Context) error {
	return e.sessions.Flush(ctx)
}

// Close waits for pending storage writes and closes storage.
func (e *Engine) Close(ctx context.Context) error {
	return errors.Join(
		e.sessions.Close(ctx),
		e.storage.Close(),
	)
}

// DisplayMessage returns what a screen shows for err.
func DisplayMessage(err error) string {
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return api.Message(err)
}
