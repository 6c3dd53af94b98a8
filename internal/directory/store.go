package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moldshop/prodtrack/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS funcionarios (
    id TEXT PRIMARY KEY,
    matricula TEXT NOT NULL UNIQUE,
    nome TEXT NOT NULL,
    senha TEXT,
    cargo TEXT,
    ativo BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_funcionarios_matricula ON funcionarios(matricula);
`

// Store provides SQLite-backed employee registry persistence.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new employee. A missing ID is generated. Senha must
// already be hashed (see HashPassword).
func (s *Store) Create(ctx context.Context, e *domain.Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO funcionarios (id, matricula, nome, senha, cargo, ativo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Matricula, e.Nome, e.Senha, e.Cargo, e.Ativo, e.CreatedAt, e.UpdatedAt)
	return err
}

// Update replaces an employee record by ID.
func (s *Store) Update(ctx context.Context, e *domain.Employee) error {
	e.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE funcionarios SET matricula = ?, nome = ?, senha = ?, cargo = ?, ativo = ?, updated_at = ?
		WHERE id = ?
	`, e.Matricula, e.Nome, e.Senha, e.Cargo, e.Ativo, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("employee %s: no such record", e.ID)
	}
	return nil
}

// Delete removes an employee by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM funcionarios WHERE id = ?`, id)
	return err
}

// Get retrieves an employee by ID. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*domain.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, matricula, nome, senha, cargo, ativo, created_at, updated_at
		FROM funcionarios WHERE id = ?
	`, id)
	return scanEmployee(row.Scan)
}

// FindByMatricula resolves a matricula to an active employee record.
// Returns (nil, nil) for an unknown or inactive matricula.
func (s *Store) FindByMatricula(ctx context.Context, matricula string) (*domain.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, matricula, nome, senha, cargo, ativo, created_at, updated_at
		FROM funcionarios WHERE matricula = ? AND ativo
	`, matricula)
	return scanEmployee(row.Scan)
}

// List returns all employees ordered by matricula.
func (s *Store) List(ctx context.Context) ([]*domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, matricula, nome, senha, cargo, ativo, created_at, updated_at
		FROM funcionarios ORDER BY matricula
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(scan func(dest ...interface{}) error) (*domain.Employee, error) {
	var e domain.Employee
	var senha, cargo sql.NullString

	err := scan(&e.ID, &e.Matricula, &e.Nome, &senha, &cargo, &e.Ativo, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Senha = senha.String
	e.Cargo = cargo.String
	return &e, nil
}
