package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moldshop/prodtrack/internal/directory"
	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
	"github.com/moldshop/prodtrack/internal/report"
	"github.com/moldshop/prodtrack/internal/workflow"
)

// ProgramResponse is the API response for a program
type ProgramResponse struct {
	ID               string            `json:"id"`
	ProgramID        string            `json:"program_id"`
	Material         string            `json:"material,omitempty"`
	Machine          string            `json:"machine,omitempty"`
	Reference        string            `json:"reference,omitempty"`
	Programmer       string            `json:"programmer,omitempty"`
	Date             string            `json:"date,omitempty"`
	Status           string            `json:"status"`
	Tools            []domain.Tool     `json:"tools,omitempty"`
	ImagePath        string            `json:"image_path,omitempty"`
	Comments         string            `json:"comments,omitempty"`
	MeasurementNotes string            `json:"measurement_notes,omitempty"`
	ProcessStartTime *string           `json:"process_start_time,omitempty"`
	ProcessEndTime   *string           `json:"process_end_time,omitempty"`
	ElapsedSeconds   int64             `json:"elapsed_seconds,omitempty"`
	ElapsedDisplay   string            `json:"elapsed_display,omitempty"`
	Operators        []domain.Operator `json:"operators,omitempty"`
	Signature        string            `json:"signature,omitempty"`
	CompletedAt      *string           `json:"completed_at,omitempty"`
}

// StatusResponse is the API response for queue counts
type StatusResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Redo       int `json:"redo"`
}

// SessionResponse is the API response for a program's completion
// workflow state
type SessionResponse struct {
	ProgramID   string           `json:"program_id"`
	Tracker     TrackerResponse  `json:"tracker"`
	Measurement MeasurementState `json:"measurement"`
	Operators   []OperatorEntry  `json:"operators"`
	Signature   SignatureState   `json:"signature"`
	Missing     []string         `json:"missing,omitempty"`
}

// TrackerResponse is the API view of the time tracker
type TrackerResponse struct {
	State          string  `json:"state"`
	StartedAt      *string `json:"started_at,omitempty"`
	StoppedAt      *string `json:"stopped_at,omitempty"`
	ElapsedSeconds int64   `json:"elapsed_seconds"`
	ElapsedDisplay string  `json:"elapsed_display"`
}

// MeasurementState is the API view of the measurement verification
type MeasurementState struct {
	Notes     string `json:"notes"`
	Confirmed bool   `json:"confirmed"`
}

// OperatorEntry is the API view of one roster row
type OperatorEntry struct {
	Matricula  string `json:"matricula"`
	Nome       string `json:"nome,omitempty"`
	AuthStatus string `json:"auth_status"`
}

// SignatureState is the API view of the signature capture
type SignatureState struct {
	Present bool `json:"present"`
}

// EmployeeResponse is the API response for an employee. The credential
// hash never leaves the server.
type EmployeeResponse struct {
	ID        string `json:"id"`
	Matricula string `json:"matricula"`
	Nome      string `json:"nome"`
	Cargo     string `json:"cargo,omitempty"`
	Ativo     bool   `json:"ativo"`
}

func programToResponse(p *domain.Program, includeSignature bool) ProgramResponse {
	resp := ProgramResponse{
		ID:               p.ID,
		ProgramID:        p.ProgramID,
		Material:         p.Material,
		Machine:          p.Machine,
		Reference:        p.Reference,
		Programmer:       p.Programmer,
		Date:             p.Date,
		Status:           string(p.Status),
		Tools:            p.Tools,
		ImagePath:        p.ImagePath,
		Comments:         p.Comments,
		MeasurementNotes: p.MeasurementNotes,
		ElapsedSeconds:   p.ElapsedSeconds,
		Operators:        p.Operators,
	}

	if p.ProcessStartTime != nil {
		t := p.ProcessStartTime.Format(time.RFC3339)
		resp.ProcessStartTime = &t
	}
	if p.ProcessEndTime != nil {
		t := p.ProcessEndTime.Format(time.RFC3339)
		resp.ProcessEndTime = &t
	}
	if p.CompletedAt != nil {
		t := p.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	if p.ElapsedSeconds > 0 {
		resp.ElapsedDisplay = report.FormatElapsed(p.ElapsedSeconds)
	}
	if includeSignature && len(p.Signature) > 0 {
		resp.Signature = base64.StdEncoding.EncodeToString(p.Signature)
	}

	return resp
}

func employeeToResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ID,
		Matricula: e.Matricula,
		Nome:      e.Nome,
		Cargo:     e.Cargo,
		Ativo:     e.Ativo,
	}
}

func (s *Server) sessionToResponse(session *workflow.Session) SessionResponse {
	resp := SessionResponse{
		ProgramID: session.ProgramID,
		Tracker: TrackerResponse{
			State:          session.Tracker.State().String(),
			ElapsedSeconds: int64(session.Tracker.Elapsed() / time.Second),
			ElapsedDisplay: report.FormatElapsed(int64(session.Tracker.Elapsed() / time.Second)),
		},
		Measurement: MeasurementState{
			Notes:     session.Measurement.Notes(),
			Confirmed: session.Measurement.Confirmed(),
		},
		Signature: SignatureState{Present: !session.Signature.Empty()},
		Missing:   s.gate.Check(session),
	}

	if t := session.Tracker.StartedAt(); t != nil {
		fs := t.Format(time.RFC3339)
		resp.Tracker.StartedAt = &fs
	}
	if t := session.Tracker.StoppedAt(); t != nil {
		fs := t.Format(time.RFC3339)
		resp.Tracker.StoppedAt = &fs
	}

	for _, e := range session.Roster.Entries() {
		resp.Operators = append(resp.Operators, OperatorEntry{
			Matricula:  e.Matricula,
			Nome:       e.Nome,
			AuthStatus: string(e.AuthStatus),
		})
	}

	return resp
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		stats, err := s.programs.Counts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, StatusResponse{
			Total:      stats.Total,
			Pending:    stats.Pending,
			InProgress: stats.InProgress,
			Completed:  stats.Completed,
			Redo:       stats.Redo,
		})
	}
}

func (s *Server) listProgramsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var opts programstore.ListOptions
		if status := r.URL.Query().Get("status"); status != "" {
			st := domain.Status(status)
			if !st.Valid() {
				writeError(w, http.StatusBadRequest, "unknown status "+status)
				return
			}
			opts.Status = st
		}

		programs, err := s.programs.List(r.Context(), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		responses := make([]ProgramResponse, len(programs))
		for i, p := range programs {
			responses[i] = programToResponse(p, false)
		}

		writeJSON(w, responses)
	}
}

// programSubtreeHandler routes everything under /api/programs/{id}.
func (s *Server) programSubtreeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/programs/"), "/")
		if path == "" {
			writeError(w, http.StatusBadRequest, "program ID required")
			return
		}

		parts := strings.Split(path, "/")
		id, rest := parts[0], parts[1:]

		switch {
		case len(rest) == 0:
			s.getProgram(w, r, id)
		case len(rest) == 1 && rest[0] == "complete":
			s.completeProgram(w, r, id)
		case len(rest) == 1 && rest[0] == "redo":
			s.redoProgram(w, r, id)
		case len(rest) == 1 && rest[0] == "start":
			s.startProgram(w, r, id)
		case len(rest) == 1 && rest[0] == "clock":
			s.clockHandler(w, r, id)
		case len(rest) == 1 && rest[0] == "session":
			s.getSession(w, r, id)
		case len(rest) == 2 && rest[0] == "session" && rest[1] == "tracker":
			s.trackerAction(w, r, id)
		case len(rest) == 2 && rest[0] == "session" && rest[1] == "measurement":
			s.updateMeasurement(w, r, id)
		case len(rest) == 3 && rest[0] == "session" && rest[1] == "measurement" && rest[2] == "confirm":
			s.confirmMeasurement(w, r, id)
		case len(rest) == 2 && rest[0] == "session" && rest[1] == "operators":
			s.addOperatorEntry(w, r, id)
		case len(rest) == 3 && rest[0] == "session" && rest[1] == "operators":
			s.operatorEntry(w, r, id, rest[2])
		case len(rest) == 4 && rest[0] == "session" && rest[1] == "operators" && rest[3] == "verify":
			s.verifyOperatorEntry(w, r, id, rest[2])
		case len(rest) == 2 && rest[0] == "session" && rest[1] == "signature":
			s.signatureAction(w, r, id)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	}
}

// loadProgram fetches a program or writes the appropriate error.
func (s *Server) loadProgram(w http.ResponseWriter, r *http.Request, id string) *domain.Program {
	p, err := s.programs.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "program not found")
		return nil
	}
	return p
}

func (s *Server) getProgram(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p := s.loadProgram(w, r, id)
	if p == nil {
		return
	}
	writeJSON(w, programToResponse(p, true))
}

func (s *Server) completeProgram(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session := s.sessions.Get(id)
	p, failures, err := s.gate.Attempt(r.Context(), session)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrCompletionInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, workflow.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, workflow.ErrNotFound):
			writeError(w, http.StatusNotFound, "program not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	if len(failures) > 0 {
		writeFailures(w, failures)
		return
	}

	s.sessions.Drop(id)

	writeJSON(w, map[string]interface{}{
		"program":                programToResponse(p, false),
		"redirect_after_seconds": int(workflow.RedirectDelay / time.Second),
	})
}

func (s *Server) redoProgram(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, err := s.machine.Redo(r.Context(), id)
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	// Refazer discards all completion artifacts, the in-memory session
	// included.
	s.sessions.Drop(id)

	writeJSON(w, programToResponse(p, false))
}

func (s *Server) startProgram(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, err := s.machine.ReturnToProgress(r.Context(), id)
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	writeJSON(w, programToResponse(p, false))
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		writeError(w, http.StatusNotFound, "program not found")
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	writeJSON(w, s.sessionToResponse(s.sessions.Get(id)))
}

func (s *Server) trackerAction(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)

	switch req.Action {
	case "start":
		session.Tracker.Start()
	case "pause":
		session.Tracker.Pause()
	case "resume":
		session.Tracker.Resume()
	case "stop":
		session.Tracker.Stop()
	case "reset":
		session.Tracker.Reset()
	default:
		writeError(w, http.StatusBadRequest, "unknown tracker action "+req.Action)
		return
	}

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) updateMeasurement(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)
	session.Measurement.UpdateNotes(req.Notes)

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) confirmMeasurement(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)
	if err := session.Measurement.Confirm(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) addOperatorEntry(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)
	session.Roster.AddEntry()

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) operatorEntry(w http.ResponseWriter, r *http.Request, id, indexStr string) {
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid roster index")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)

	switch r.Method {
	case http.MethodPut:
		var req struct {
			Matricula string `json:"matricula"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := session.Roster.SetMatricula(r.Context(), index, req.Matricula); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	case http.MethodDelete:
		if err := session.Roster.RemoveEntry(index); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) verifyOperatorEntry(w http.ResponseWriter, r *http.Request, id, indexStr string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	index, err := strconv.Atoi(indexStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid roster index")
		return
	}

	var req struct {
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)

	ok, err := session.Roster.Authenticate(r.Context(), index, req.Senha)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"authenticated": ok,
		"session":       s.sessionToResponse(session),
	})
}

func (s *Server) signatureAction(w http.ResponseWriter, r *http.Request, id string) {
	if s.loadProgram(w, r, id) == nil {
		return
	}
	session := s.sessions.Get(id)

	switch r.Method {
	case http.MethodPut:
		var req struct {
			Data string `json:"data"` // base64 PNG from the signature pad
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		raw, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "signature must be base64")
			return
		}
		if len(raw) == 0 {
			writeError(w, http.StatusBadRequest, "signature is empty")
			return
		}
		session.Signature.Set(raw)
	case http.MethodDelete:
		session.Signature.Clear()
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, s.sessionToResponse(session))
}

func (s *Server) employeesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			employees, err := s.employees.List(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			responses := make([]EmployeeResponse, len(employees))
			for i, e := range employees {
				responses[i] = employeeToResponse(e)
			}
			writeJSON(w, responses)

		case http.MethodPost:
			var req struct {
				Matricula string `json:"matricula"`
				Nome      string `json:"nome"`
				Senha     string `json:"senha"`
				Cargo     string `json:"cargo"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if req.Matricula == "" || req.Nome == "" || req.Senha == "" {
				writeError(w, http.StatusBadRequest, "matricula, nome and senha are required")
				return
			}

			hash, err := directory.HashPassword(req.Senha)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}

			e := &domain.Employee{
				Matricula: req.Matricula,
				Nome:      req.Nome,
				Senha:     hash,
				Cargo:     req.Cargo,
				Ativo:     true,
			}
			if err := s.employees.Create(r.Context(), e); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}

			w.WriteHeader(http.StatusCreated)
			writeJSON(w, employeeToResponse(e))

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) employeeByIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/funcionarios/"), "/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "employee ID required")
			return
		}

		e, err := s.employees.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if e == nil {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, employeeToResponse(e))

		case http.MethodPut:
			var req struct {
				Nome  *string `json:"nome"`
				Senha *string `json:"senha"`
				Cargo *string `json:"cargo"`
				Ativo *bool   `json:"ativo"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			if req.Nome != nil {
				e.Nome = *req.Nome
			}
			if req.Cargo != nil {
				e.Cargo = *req.Cargo
			}
			if req.Ativo != nil {
				e.Ativo = *req.Ativo
			}
			if req.Senha != nil && *req.Senha != "" {
				hash, err := directory.HashPassword(*req.Senha)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				e.Senha = hash
			}

			if err := s.employees.Update(r.Context(), e); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, employeeToResponse(e))

		case http.MethodDelete:
			if err := s.employees.Delete(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]string{"status": "deleted"})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// listOperatorsHandler serves the slim matricula/nome view the
// completion dialog consumes. Only active employees are listed.
func (s *Server) listOperatorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		employees, err := s.employees.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		operators := make([]domain.Operator, 0, len(employees))
		for _, e := range employees {
			if !e.Ativo {
				continue
			}
			operators = append(operators, domain.Operator{Matricula: e.Matricula, Nome: e.Nome})
		}

		writeJSON(w, operators)
	}
}

func (s *Server) verifyOperatorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req struct {
			Matricula string `json:"matricula"`
			Senha     string `json:"senha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ok, err := s.auth.Verify(r.Context(), req.Matricula, req.Senha)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, map[string]bool{"authenticated": ok})
	}
}
