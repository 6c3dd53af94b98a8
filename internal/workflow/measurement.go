package workflow

import (
	"strings"
	"sync"
)

// MeasurementVerification holds the free-text attestation that
// dimensional checks were performed, gated by an explicit confirmation
// step. Editing notes after confirmation does not revoke the
// confirmation; the legacy workflow behaves the same way and revoking
// here would silently invalidate in-flight completions.
type MeasurementVerification struct {
	mu        sync.Mutex
	notes     string
	confirmed bool
}

// NewMeasurementVerification creates an empty, unconfirmed verification.
func NewMeasurementVerification() *MeasurementVerification {
	return &MeasurementVerification{}
}

// UpdateNotes replaces the verification notes.
func (m *MeasurementVerification) UpdateNotes(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = text
}

// Confirm marks the verification as confirmed. Fails with
// ErrEmptyVerification when the notes are empty or whitespace-only.
// Confirming an already-confirmed verification is a no-op.
func (m *MeasurementVerification) Confirm() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(m.notes) == "" {
		return ErrEmptyVerification
	}
	m.confirmed = true
	return nil
}

// Notes returns the current verification notes.
func (m *MeasurementVerification) Notes() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes
}

// Confirmed reports whether the verification has been confirmed.
func (m *MeasurementVerification) Confirmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmed
}

// Reset clears notes and confirmation.
func (m *MeasurementVerification) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = ""
	m.confirmed = false
}
