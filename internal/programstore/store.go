package programstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moldshop/prodtrack/internal/domain"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed program persistence.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
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

const programColumns = `seq, id, program_id, material, machine, reference, programmer, date, status, tools, image_path, comments, measurement_notes, process_start_time, process_end_time, elapsed_seconds, operators, signature, completed_at, created_at, updated_at`

// Create inserts a new program. The store assigns the sequence number
// that drives next-pending promotion; it is written back to p.
func (s *Store) Create(ctx context.Context, p *domain.Program) error {
	toolsJSON, err := json.Marshal(p.Tools)
	if err != nil {
		return err
	}
	opsJSON, err := json.Marshal(p.Operators)
	if err != nil {
		return err
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (id, program_id, material, machine, reference, programmer, date, status, tools, image_path, comments, measurement_notes, process_start_time, process_end_time, elapsed_seconds, operators, signature, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.ProgramID,
		p.Material,
		p.Machine,
		p.Reference,
		p.Programmer,
		p.Date,
		string(p.Status),
		string(toolsJSON),
		p.ImagePath,
		p.Comments,
		p.MeasurementNotes,
		nullableTime(p.ProcessStartTime),
		nullableTime(p.ProcessEndTime),
		p.ElapsedSeconds,
		string(opsJSON),
		p.Signature,
		nullableTime(p.CompletedAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.Seq = seq
	return nil
}

// Get retrieves a program by ID. Returns (nil, nil) when no record
// matches.
func (s *Store) Get(ctx context.Context, id string) (*domain.Program, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+programColumns+` FROM programs WHERE id = ?
	`, id)

	p, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindByProgramID looks a program up by its shop-floor program number.
// Returns (nil, nil) when no record matches.
func (s *Store) FindByProgramID(ctx context.Context, programID string) (*domain.Program, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+programColumns+` FROM programs WHERE program_id = ? ORDER BY seq LIMIT 1
	`, programID)

	p, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// Save replaces the stored record for p.ID with p (full-record replace
// semantics). Saving an unknown ID is an error.
func (s *Store) Save(ctx context.Context, p *domain.Program) error {
	toolsJSON, err := json.Marshal(p.Tools)
	if err != nil {
		return err
	}
	opsJSON, err := json.Marshal(p.Operators)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE programs SET
			program_id = ?,
			material = ?,
			machine = ?,
			reference = ?,
			programmer = ?,
			date = ?,
			status = ?,
			tools = ?,
			image_path = ?,
			comments = ?,
			measurement_notes = ?,
			process_start_time = ?,
			process_end_time = ?,
			elapsed_seconds = ?,
			operators = ?,
			signature = ?,
			completed_at = ?,
			updated_at = ?
		WHERE id = ?
	`,
		p.ProgramID,
		p.Material,
		p.Machine,
		p.Reference,
		p.Programmer,
		p.Date,
		string(p.Status),
		string(toolsJSON),
		p.ImagePath,
		p.Comments,
		p.MeasurementNotes,
		nullableTime(p.ProcessStartTime),
		nullableTime(p.ProcessEndTime),
		p.ElapsedSeconds,
		string(opsJSON),
		p.Signature,
		nullableTime(p.CompletedAt),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("program %s: no such record", p.ID)
	}
	return nil
}

// ListOptions specifies filters for listing programs.
type ListOptions struct {
	Status domain.Status
}

// List returns programs matching the given options in insert order.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}

	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []*domain.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	return programs, rows.Err()
}

// FindNextPending returns the pending program with the lowest sequence
// number, or (nil, nil) when nothing is pending.
func (s *Store) FindNextPending(ctx context.Context) (*domain.Program, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+programColumns+` FROM programs WHERE status = ? ORDER BY seq LIMIT 1
	`, string(domain.StatusPending))

	p, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UpdateStatus updates a program's status without touching the rest of
// the record.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	_, err := s.db.ExecContext(ctx, `UPDATE programs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	return err
}

// Stats holds the dashboard counters.
type Stats struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Redo       int
}

// Counts returns per-status program counts.
func (s *Store) Counts(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM programs GROUP BY status`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch domain.Status(status) {
		case domain.StatusPending:
			stats.Pending = count
		case domain.StatusInProgress:
			stats.InProgress = count
		case domain.StatusCompleted:
			stats.Completed = count
		case domain.StatusRedo:
			stats.Redo = count
		}
	}
	return stats, rows.Err()
}

func scanProgram(scan func(dest ...interface{}) error) (*domain.Program, error) {
	var p domain.Program
	var status, toolsJSON, opsJSON string
	var material, machine, reference, programmer, date, imagePath, comments, notes sql.NullString
	var processStart, processEnd, completedAt sql.NullTime

	err := scan(&p.Seq, &p.ID, &p.ProgramID, &material, &machine, &reference, &programmer, &date,
		&status, &toolsJSON, &imagePath, &comments, &notes, &processStart, &processEnd,
		&p.ElapsedSeconds, &opsJSON, &p.Signature, &completedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Material = material.String
	p.Machine = machine.String
	p.Reference = reference.String
	p.Programmer = programmer.String
	p.Date = date.String
	p.ImagePath = imagePath.String
	p.Comments = comments.String
	p.MeasurementNotes = notes.String
	p.Status = domain.Status(status)
	p.ProcessStartTime = timePtr(processStart)
	p.ProcessEndTime = timePtr(processEnd)
	p.CompletedAt = timePtr(completedAt)

	if toolsJSON != "" && toolsJSON != "null" {
		if err := json.Unmarshal([]byte(toolsJSON), &p.Tools); err != nil {
			return nil, err
		}
	}
	if opsJSON != "" && opsJSON != "null" {
		if err := json.Unmarshal([]byte(opsJSON), &p.Operators); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	c := t.Time
	return &c
}
