package workflow

import (
	"sync"

	"github.com/moldshop/prodtrack/internal/domain"
)

// Session is the completion workflow state for one program being
// edited: time tracking, measurement verification, operator roster and
// signature capture. It lives for the duration of the editing session
// and is discarded (or folded into the persisted record) on a status
// transition. Nothing in it is persisted until the completion gate
// passes.
type Session struct {
	ProgramID   string
	Tracker     *TimeTracker
	Measurement *MeasurementVerification
	Roster      *OperatorRoster
	Signature   *SignatureCapture
}

// NewSession creates a fresh workflow session for a program.
func NewSession(programID string, directory OperatorDirectory, auth OperatorAuthenticator, events domain.EventPublisher) *Session {
	return &Session{
		ProgramID:   programID,
		Tracker:     NewTimeTracker(),
		Measurement: NewMeasurementVerification(),
		Roster:      NewOperatorRoster(programID, directory, auth, events),
		Signature:   NewSignatureCapture(),
	}
}

// Reset returns every component to its initial state. Used by the
// Refazer transition, which discards all completion artifacts.
func (s *Session) Reset() {
	s.Tracker.Reset()
	s.Measurement.Reset()
	s.Signature.Clear()
}

// SessionManager hands out at most one workflow session per program.
type SessionManager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	directory OperatorDirectory
	auth      OperatorAuthenticator
	events    domain.EventPublisher
}

// NewSessionManager creates an empty manager.
func NewSessionManager(directory OperatorDirectory, auth OperatorAuthenticator, events domain.EventPublisher) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		directory: directory,
		auth:      auth,
		events:    events,
	}
}

// Get returns the session for a program, creating it on first use.
func (m *SessionManager) Get(programID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[programID]; ok {
		return s
	}
	s := NewSession(programID, m.directory, m.auth, m.events)
	m.sessions[programID] = s
	return s
}

// Drop discards a program's session, abandoning any in-memory state.
func (m *SessionManager) Drop(programID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, programID)
}
