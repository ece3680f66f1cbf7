package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/khoahotran/labour-connect/internal/domain/labour"
)

type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
)

var ErrSessionNotFound = errors.New("edit session not found")

// PendingImage is a photo chosen during the current edit, uploaded only on save.
type PendingImage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is the single human readable outcome of an operation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func successNotice(msg string) *Notice {
	return &Notice{Level: NoticeSuccess, Message: msg}
}

func errorNotice(msg string, err error) *Notice {
	return &Notice{Level: NoticeError, Message: msg, Err: err}
}

// Session is the per-user view/edit state. Profile holds the draft while
// editing and the persisted-equivalent record while viewing.
type Session struct {
	UserID       string         `json:"user_id"`
	State        State          `json:"state"`
	Profile      labour.Profile `json:"profile"`
	Persisted    bool           `json:"persisted"`
	PendingImage *PendingImage  `json:"pending_image,omitempty"`
	Notice       *Notice        `json:"notice,omitempty"`
}

func newSession(userID string) *Session {
	return &Session{
		UserID:  userID,
		State:   StateViewing,
		Profile: labour.NewEmpty(userID),
	}
}

// Snapshot copies s so callers can hold it past the next mutation.
func (s *Session) Snapshot() *Session {
	out := *s
	out.Profile = s.Profile.Clone()
	if s.PendingImage != nil {
		img := *s.PendingImage
		out.PendingImage = &img
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return &out
}

type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// Confirmer is the blocking yes/no decision taken before a delete.
type Confirmer func(ctx context.Context) bool

// Confirmed is a Confirmer with a fixed answer.
func Confirmed(answer bool) Confirmer {
	return func(context.Context) bool { return answer }
}

// inflight serializes fetch/save/delete per user.
type inflight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{busy: make(map[string]struct{})}
}

func (g *inflight) acquire(userID string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[userID]; ok {
		return nil, false
	}
	g.busy[userID] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.busy, userID)
		g.mu.Unlock()
	}, true
}
