package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/moldshop/prodtrack/internal/domain"
)

// OperatorDirectory resolves matriculas to registry records.
// Implementations return (nil, nil) for an unknown matricula.
type OperatorDirectory interface {
	FindByMatricula(ctx context.Context, matricula string) (*domain.Employee, error)
}

// OperatorAuthenticator verifies a submitted credential for a given
// matricula.
type OperatorAuthenticator interface {
	Verify(ctx context.Context, matricula, credential string) (bool, error)
}

// RosterEntry is one operator row of a program's completion workflow.
type RosterEntry struct {
	Matricula  string            `json:"matricula"`
	Nome       string            `json:"nome"`
	AuthStatus domain.AuthStatus `json:"auth_status"`
}

// Valid reports whether the entry counts toward the completion gate's
// operator requirement.
func (e RosterEntry) Valid() bool {
	return e.AuthStatus == domain.AuthAuthenticated && e.Nome != ""
}

// OperatorRoster tracks, per program, which operators have been added,
// resolved, and authenticated. A roster always keeps at least one
// (possibly empty) editable entry.
type OperatorRoster struct {
	mu        sync.Mutex
	programID string
	entries   []RosterEntry
	directory OperatorDirectory
	auth      OperatorAuthenticator
	events    domain.EventPublisher
}

// NewOperatorRoster creates a roster with a single empty entry.
func NewOperatorRoster(programID string, directory OperatorDirectory, auth OperatorAuthenticator, events domain.EventPublisher) *OperatorRoster {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &OperatorRoster{
		programID: programID,
		entries:   []RosterEntry{{AuthStatus: domain.AuthUnauthenticated}},
		directory: directory,
		auth:      auth,
		events:    events,
	}
}

// AddEntry appends an empty entry.
func (r *OperatorRoster) AddEntry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, RosterEntry{AuthStatus: domain.AuthUnauthenticated})
}

// SetMatricula assigns a matricula to the entry at index, resolving it
// against the operator directory. A known matricula sets the display
// name and resets authentication; an unknown one clears the name and
// leaves the entry invalid.
func (r *OperatorRoster) SetMatricula(ctx context.Context, index int, matricula string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.entries) {
		return fmt.Errorf("roster index %d out of range", index)
	}

	emp, err := r.directory.FindByMatricula(ctx, matricula)
	if err != nil {
		return err
	}

	entry := &r.entries[index]
	entry.Matricula = matricula
	entry.AuthStatus = domain.AuthUnauthenticated
	if emp == nil {
		entry.Nome = ""
		return nil
	}
	entry.Nome = emp.Nome
	return nil
}

// Authenticate verifies a credential for the entry at index. A failed
// verification marks the entry Failed but leaves it eligible for
// retry.
func (r *OperatorRoster) Authenticate(ctx context.Context, index int, credential string) (bool, error) {
	r.mu.Lock()
	if index < 0 || index >= len(r.entries) {
		r.mu.Unlock()
		return false, fmt.Errorf("roster index %d out of range", index)
	}
	entry := r.entries[index]
	r.mu.Unlock()

	if entry.Matricula == "" || entry.Nome == "" {
		return false, fmt.Errorf("entry %d has no resolved operator", index)
	}

	ok, err := r.auth.Verify(ctx, entry.Matricula, credential)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	// The entry may have been edited while verification was in flight;
	// only record the outcome if it still refers to the same operator.
	if index < len(r.entries) && r.entries[index].Matricula == entry.Matricula {
		if ok {
			r.entries[index].AuthStatus = domain.AuthAuthenticated
		} else {
			r.entries[index].AuthStatus = domain.AuthFailed
		}
	}
	r.mu.Unlock()

	if ok {
		r.events.Publish(domain.OperatorAuthenticated{
			ProgramID: r.programID,
			Matricula: entry.Matricula,
			Nome:      entry.Nome,
		})
	}
	return ok, nil
}

// RemoveEntry removes the entry at index. Removing the last remaining
// entry is disallowed; the roster keeps one editable row.
func (r *OperatorRoster) RemoveEntry(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.entries) {
		return fmt.Errorf("roster index %d out of range", index)
	}
	if len(r.entries) == 1 {
		return fmt.Errorf("cannot remove the only roster entry")
	}
	r.entries = append(r.entries[:index], r.entries[index+1:]...)
	return nil
}

// Entries returns a copy of the roster rows.
func (r *OperatorRoster) Entries() []RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RosterEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ValidOperators returns the authenticated operators in roster order.
func (r *OperatorRoster) ValidOperators() []domain.Operator {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ops []domain.Operator
	for _, e := range r.entries {
		if e.Valid() {
			ops = append(ops, domain.Operator{Matricula: e.Matricula, Nome: e.Nome})
		}
	}
	return ops
}

// Satisfied reports whether the roster meets the completion gate's
// operator requirement: at least one entry, and every entered
// matricula resolved and authenticated. A single untouched empty entry
// does not satisfy the requirement.
func (r *OperatorRoster) Satisfied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	valid := 0
	for _, e := range r.entries {
		if e.Matricula == "" && e.Nome == "" {
			continue // untouched editable row
		}
		if !e.Valid() {
			return false
		}
		valid++
	}
	return valid > 0
}
