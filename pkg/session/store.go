package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/NicolasHaas/radiant/pkg/kv"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	key    string
	logger *slog.Logger
}

// WithKey overrides the storage key (default StorageKey).
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithLogger sets the logger used for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Store owns the session state for one process. It is safe for concurrent
// use; each Dispatch is applied atomically.
type Store[U any] struct {
	mu    sync.Mutex
	state State[U]
	gen   uint64 // bumped by every login and logout

	// notifications not yet delivered, in dispatch order
	notes      []State[U]
	delivering bool

	subMu   sync.Mutex
	subs    map[int]func(State[U])
	nextSub int

	kv  kv.Store
	key string
	log *slog.Logger

	// effect queue, drained by run()
	qmu     sync.Mutex
	pending []task[U]
	closing bool
	wake    chan struct{}
	stopped chan struct{}
}

type task[U any] struct {
	effect  Effect[U]
	barrier chan struct{} // non-nil for Flush markers
}

// New creates a Store in the initial state and starts its effect worker.
// The Store does not own st; closing the Store leaves st open.
func New[U any](st kv.Store, opts ...Option) *Store[U] {
	o := options{key: StorageKey, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[U]{
		state:   Initial[U](),
		subs:    make(map[int]func(State[U])),
		kv:      st,
		key:     o.key,
		log:     o.logger.With("component", "session"),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// State returns a snapshot of the current state. Changing the returned user
// does not change the session.
func (s *Store[U]) State() State[U] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.snapshot()
}

// Dispatch applies a and returns the resulting state. Any storage effect is
// queued and runs after Dispatch returns.
func (s *Store[U]) Dispatch(a Action[U]) State[U] {
	next, _ := s.dispatch(a, nil)
	return next
}

// dispatch applies a, unless atGen is set and a login or logout happened
// since that generation.
func (s *Store[U]) dispatch(a Action[U], atGen *uint64) (State[U], bool) {
	s.mu.Lock()
	if atGen != nil && *atGen != s.gen {
		st := s.state.snapshot()
		s.mu.Unlock()
		return st, false
	}
	next, effect := Reduce(s.state, a)
	s.state = next
	if a.Kind == KindLogin || a.Kind == KindLogout {
		s.gen++
	}
	if effect.Kind != EffectNone {
		// queued under s.mu so effects keep dispatch order
		if !s.enqueue(task[U]{effect: effect}) {
			s.log.Warn("session store closed, dropping storage effect", "action", a.Kind.String())
		}
	}
	s.notes = append(s.notes, next.snapshot())
	s.mu.Unlock()

	s.deliver()
	return next.snapshot(), true
}

// Login dispatches Login(u).
func (s *Store[U]) Login(u U) State[U] { return s.Dispatch(Login(u)) }

// Logout dispatches Logout().
func (s *Store[U]) Logout() State[U] { return s.Dispatch(Logout[U]()) }

// SetUser dispatches SetUser(u).
func (s *Store[U]) SetUser(u U) State[U] { return s.Dispatch(SetUser(u)) }

// SetLoading dispatches SetLoading(b).
func (s *Store[U]) SetLoading(b bool) State[U] { return s.Dispatch(SetLoading[U](b)) }

// Subscribe registers fn to be called with the new state after every
// Dispatch. Calls are made one at a time, in dispatch order, and may come
// from whichever goroutine is delivering at the time. fn may dispatch; its
// notification follows the current one. The returned func removes the
// subscription.
func (s *Store[U]) Subscribe(fn func(State[U])) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// deliver drains pending notifications unless another call already is.
func (s *Store[U]) deliver() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.notes) > 0 {
		st := s.notes[0]
		s.notes[0] = State[U]{}
		s.notes = s.notes[1:]
		s.mu.Unlock()
		s.notify(st)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *Store[U]) notify(st State[U]) {
	s.subMu.Lock()
	fns := make([]func(State[U]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st.snapshot())
	}
}

// LoadUser rehydrates the session from storage. A missing, unreadable or
// corrupt stored value leaves the user absent. A login or logout dispatched
// while the read is in flight wins over the stored value. Loading is always
// cleared when LoadUser returns.
func (s *Store[U]) LoadUser(ctx context.Context) {
	defer s.Dispatch(SetLoading[U](false))

	// read our own queued writes, if any
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("flush before load", "err", err)
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	u := s.readUser(ctx)
	if u == nil {
		return
	}
	if _, ok := s.dispatch(SetUser(*u), &gen); !ok {
		s.log.Debug("session changed while loading, ignoring stored user", "key", s.key)
	}
}

func (s *Store[U]) readUser(ctx context.Context) *U {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Error("failed to load user info", "key", s.key, "err", err)
		return nil
	}
	if !ok {
		s.log.Debug("no stored user info", "key", s.key)
		return nil
	}

	var u *U
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn("discarding corrupt user info", "key", s.key, "err", err)
		return nil
	}
	return u
}

// Flush blocks until every effect queued before the call has run, or ctx is
// done.
func (s *Store[U]) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.enqueue(task[U]{barrier: done}) {
		// closing: wait for the drain instead
		done = s.stopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting storage effects and waits for queued ones to finish,
// or for ctx to be done. State reads and dispatches keep working afterwards,
// but their effects are dropped.
func (s *Store[U]) Close(ctx context.Context) error {
	s.qmu.Lock()
	s.closing = true
	s.qmu.Unlock()
	s.signal()

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store[U]) enqueue(t task[U]) bool {
	s.qmu.Lock()
	if s.closing {
		s.qmu.Unlock()
		return false
	}
	s.pending = append(s.pending, t)
	s.qmu.Unlock()
	s.signal()
	return true
}

func (s *Store[U]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store[U]) run() {
	defer close(s.stopped)
	for {
		s.qmu.Lock()
		if len(s.pending) == 0 {
			closing := s.closing
			s.qmu.Unlock()
			if closing {
				return
			}
			<-s.wake
			continue
		}
		t := s.pending[0]
		s.pending[0] = task[U]{}
		s.pending = s.pending[1:]
		s.qmu.Unlock()

		if t.barrier != nil {
			close(t.barrier)
			continue
		}
		s.apply(t.effect)
	}
}

// apply runs one effect. In-flight writes are never cancelled.
func (s *Store[U]) apply(e Effect[U]) {
	ctx := context.Background()

	switch e.Kind {
	case EffectWrite:
		data, err := json.Marshal(e.User)
		if err != nil {
			s.log.Error("failed to encode user info", "key", s.key, "err", err)
			return
		}
		if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
			s.log.Error("failed to save user info", "key", s.key, "err", err)
			return
		}
		s.log.Debug("user info saved", "key", s.key)
	case EffectRemove:
		if err := s.kv.Remove(ctx, s.key); err != nil {
			s.log.Error("failed to remove user info", "key", s.key, "err", err)
			return
		}
		s.log.Debug("user info removed", "key", s.key)
	}
}
