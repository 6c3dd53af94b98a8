package domain

import "time"

// Event is a domain event published by the workflow core. The
// presentation layer subscribes instead of wiring callbacks into the
// components themselves.
type Event interface {
	EventType() string
}

// EventPublisher receives domain events. Publish must not block the
// workflow; fan-out is the subscriber's problem.
type EventPublisher interface {
	Publish(Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// StatusChanged is published after a program's status transition has
// been persisted.
type StatusChanged struct {
	ProgramID string `json:"program_id"`
	From      Status `json:"from"`
	To        Status `json:"to"`
}

func (StatusChanged) EventType() string { return "status_changed" }

// ProgramCompleted is published once a completion attempt has passed
// the gate and been persisted. RedirectAfter is the delay the UI
// honors before leaving the detail view.
type ProgramCompleted struct {
	Program       *Program      `json:"program"`
	RedirectAfter time.Duration `json:"redirect_after"`
}

func (ProgramCompleted) EventType() string { return "program_completed" }

// OperatorAuthenticated is published when a roster entry passes
// credential verification.
type OperatorAuthenticated struct {
	ProgramID string `json:"program_id"`
	Matricula string `json:"matricula"`
	Nome      string `json:"nome"`
}

func (OperatorAuthenticated) EventType() string { return "operator_authenticated" }
