package workflow

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("workflow session not found")

// Registry holds the open workflow sessions, in process only. A closed
// session is gone: a late upstream response finding no session simply has
// nothing left to resurrect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Open(companyID, organizationID string, bills []BillToPay) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	session := NewSession(id.String(), companyID, organizationID, bills)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session, nil
}

// Get fetches a session scoped to its owning company; other companies see
// not-found, never forbidden.
func (r *Registry) Get(id, companyID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || session.CompanyID != companyID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close resets and removes the session.
func (r *Registry) Close(id, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.CompanyID != companyID {
		return ErrSessionNotFound
	}

	session.Reset()
	delete(r.sessions, id)
	return nil
}

// Alive reports whether the session still exists, used after an upstream
// call settles to decide if there is any state left to update.
func (r *Registry) Alive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}
