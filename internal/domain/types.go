package domain

// Status represents the lifecycle state of a program.
// The string values match the Portuguese labels stored by the
// legacy system, so they survive round-trips through the database
// and the JSON API unchanged.
type Status string

const (
	StatusPending    Status = "Pendente"
	StatusInProgress Status = "Em Andamento"
	StatusCompleted  Status = "Concluído"
	StatusRedo       Status = "Refazer"
)

// Valid reports whether s is one of the known program statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRedo:
		return true
	}
	return false
}

// AuthStatus represents the authentication state of a roster entry.
type AuthStatus string

const (
	AuthUnauthenticated AuthStatus = "unauthenticated"
	AuthAuthenticated   AuthStatus = "authenticated"
	AuthFailed          AuthStatus = "failed"
)
