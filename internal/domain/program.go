package domain

import "time"

// Program is a single manufacturing job ticket. The tooling spec is
// immutable once imported; the completion fields (times, operators,
// signature, measurement notes) are only written through the status
// machine.
type Program struct {
	ID         string
	Seq        int64 // insert order, drives next-pending promotion
	ProgramID  string
	Material   string
	Machine    string
	Reference  string
	Programmer string
	Date       string
	Status     Status
	Tools      []Tool
	ImagePath  string
	Comments   string

	MeasurementNotes string
	ProcessStartTime *time.Time
	ProcessEndTime   *time.Time
	ElapsedSeconds   int64
	Operators        []Operator
	Signature        []byte
	CompletedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tool describes one tool of a program's job spec.
type Tool struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Dimensions map[string]float64 `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Type       string             `json:"type" yaml:"type"`
	Function   string             `json:"function" yaml:"function"`
	Parameters ToolParameters     `json:"parameters" yaml:"parameters"`
}

// ToolParameters holds the cutting parameters and quality targets of a tool.
type ToolParameters struct {
	Velocity string      `json:"velocity" yaml:"velocity"`
	Advance  string      `json:"advance" yaml:"advance"`
	Depth    string      `json:"depth" yaml:"depth"`
	Quality  ToolQuality `json:"quality" yaml:"quality"`
}

// ToolQuality holds tolerance and surface finish targets.
type ToolQuality struct {
	Tolerance string `json:"tolerance" yaml:"tolerance"`
	Finishing string `json:"finishing" yaml:"finishing"`
}

// Operator is a shop-floor worker reference recorded at completion.
// The credential hash never travels with the program record.
type Operator struct {
	Matricula string `json:"matricula"`
	Nome      string `json:"nome"`
}

// Employee is a registry record backing operator identity. Senha holds
// an opaque credential hash; verification is delegated to the
// authenticator and the hash is never exposed through the API.
type Employee struct {
	ID        string
	Matricula string
	Nome      string
	Senha     string
	Cargo     string
	Ativo     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completion is the payload persisted when a program passes the
// completion gate.
type Completion struct {
	MeasurementNotes string
	ProcessStartTime time.Time
	ProcessEndTime   time.Time
	ElapsedSeconds   int64
	Operators        []Operator
	Signature        []byte
}

// Completed reports whether the program carries every artifact a
// Concluído record must have.
func (p *Program) Completed() bool {
	return p.Status == StatusCompleted &&
		p.CompletedAt != nil &&
		len(p.Signature) > 0 &&
		p.ProcessStartTime != nil &&
		p.ProcessEndTime != nil &&
		len(p.Operators) > 0
}

// ClearCompletion resets every completion-related field. Used by the
// Refazer transition.
func (p *Program) ClearCompletion() {
	p.MeasurementNotes = ""
	p.ProcessStartTime = nil
	p.ProcessEndTime = nil
	p.ElapsedSeconds = 0
	p.Operators = nil
	p.Signature = nil
	p.CompletedAt = nil
}
