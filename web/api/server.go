package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/moldshop/prodtrack/internal/domain"
	"github.com/moldshop/prodtrack/internal/programstore"
	"github.com/moldshop/prodtrack/internal/workflow"
)

// ProgramStore is the read side of the program queue used by the API.
type ProgramStore interface {
	Get(ctx context.Context, id string) (*domain.Program, error)
	List(ctx context.Context, opts programstore.ListOptions) ([]*domain.Program, error)
	Counts(ctx context.Context) (programstore.Stats, error)
}

// EmployeeStore is the operator registry used by the API.
type EmployeeStore interface {
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, e *domain.Employee) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	FindByMatricula(ctx context.Context, matricula string) (*domain.Employee, error)
}

// Server is the HTTP API server
type Server struct {
	programs  ProgramStore
	employees EmployeeStore
	machine   *workflow.StatusMachine
	gate      *workflow.CompletionGate
	sessions  *workflow.SessionManager
	auth      workflow.OperatorAuthenticator
	addr      string
	mux       *http.ServeMux
	sseHub    *SSEHub
}

// NewServer creates a new API server
func NewServer(programs ProgramStore, employees EmployeeStore, machine *workflow.StatusMachine, gate *workflow.CompletionGate, sessions *workflow.SessionManager, auth workflow.OperatorAuthenticator, addr string) *Server {
	s := &Server{
		programs:  programs,
		employees: employees,
		machine:   machine,
		gate:      gate,
		sessions:  sessions,
		auth:      auth,
		addr:      addr,
		mux:       http.NewServeMux(),
		sseHub:    NewSSEHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/programs", s.listProgramsHandler())
	s.mux.HandleFunc("/api/programs/", s.programSubtreeHandler())
	s.mux.HandleFunc("/api/funcionarios", s.employeesHandler())
	s.mux.HandleFunc("/api/funcionarios/", s.employeeByIDHandler())
	s.mux.HandleFunc("/api/operators", s.listOperatorsHandler())
	s.mux.HandleFunc("/api/operators/verify", s.verifyOperatorHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())

	// Static files (dashboard build output)
	s.mux.Handle("/", http.FileServer(http.Dir("web/ui/build")))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartHub runs the SSE fan-out loop without binding a listener.
func (s *Server) StartHub() {
	go s.sseHub.Run()
}

// Publish implements domain.EventPublisher by fanning the event out to
// all SSE clients. Wire the workflow core's publisher here so every
// status transition reaches the dashboard.
func (s *Server) Publish(event domain.Event) {
	s.Broadcast(toSSEEvent(event))
}

// Broadcast sends an event to all SSE clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeFailures(w http.ResponseWriter, failures []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string][]string{"errors": failures})
}
