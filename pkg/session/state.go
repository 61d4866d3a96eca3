package session

// StorageKey is the fixed key under which the user is persisted.
const StorageKey = "userInfo"

// State is the in-memory session. User is nil when nobody is logged in.
type State[U any] struct {
	User    *U
	Loading bool
}

// LoggedIn reports whether a user is present.
func (s State[U]) LoggedIn() bool {
	return s.User != nil
}

// Initial returns the state a process starts with: no user, loading.
func Initial[U any]() State[U] {
	return State[U]{Loading: true}
}

// Kind identifies an action.
type Kind int

const (
	KindLogin Kind = iota + 1
	KindLogout
	KindSetUser
	KindSetLoading
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindLogout:
		return "logout"
	case KindSetUser:
		return "setUser"
	case KindSetLoading:
		return "setLoading"
	default:
		return "unknown"
	}
}

// Action is a request to change the session state.
type Action[U any] struct {
	Kind    Kind
	User    *U
	Loading bool
}

// Login logs u in and persists it.
func Login[U any](u U) Action[U] {
	return Action[U]{Kind: KindLogin, User: &u}
}

// Logout clears the user and removes the persisted copy.
func Logout[U any]() Action[U] {
	return Action[U]{Kind: KindLogout}
}

// SetUser sets a known user without touching storage.
func SetUser[U any](u U) Action[U] {
	return Action[U]{Kind: KindSetUser, User: &u}
}

// SetLoading sets the loading flag.
func SetLoading[U any](loading bool) Action[U] {
	return Action[U]{Kind: KindSetLoading, Loading: loading}
}

// EffectKind identifies a storage side effect.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectWrite
	EffectRemove
)

// Effect is the storage work an action asks for.
type Effect[U any] struct {
	Kind EffectKind
	User *U // set for EffectWrite
}

// Reduce applies a to s. It performs no I/O. The returned state and effect
// each hold their own copy of the user, so neither aliases the action.
func Reduce[U any](s State[U], a Action[U]) (State[U], Effect[U]) {
	switch a.Kind {
	case KindLogin:
		return State[U]{User: clone(a.User), Loading: false}, Effect[U]{Kind: EffectWrite, User: clone(a.User)}
	case KindLogout:
		return State[U]{User: nil, Loading: false}, Effect[U]{Kind: EffectRemove}
	case KindSetUser:
		return State[U]{User: clone(a.User), Loading: false}, Effect[U]{}
	case KindSetLoading:
		s.Loading = a.Loading
		return s, Effect[U]{}
	default:
		return s, Effect[U]{}
	}
}

// snapshot returns s with a private copy of the user.
func (s State[U]) snapshot() State[U] {
	s.User = clone(s.User)
	return s
}

func clone[U any](u *U) *U {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
