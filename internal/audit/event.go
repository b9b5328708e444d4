package audit

import "time"

// Outcome — итог согласования в терминах журнала.
const (
	OutcomeApprove = "approve"
	OutcomeReject  = "reject"
)

// Event — одна строка журнала решений: кто отсутствует, когда и чем
// закончилась цепочка согласования.
type Event struct {
	ID      string `json:"id"`       // UUID события
	TraceID string `json:"trace_id"` // Сквозной ID действия

	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Branch      string `json:"branch"`
	Position    string `json:"position"`
	CaseKind    string `json:"case"`
	Department  string `json:"department"`
	TimeRange   string `json:"time_range"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	Outcome     string `json:"outcome"` // approve | reject
	Reason      string `json:"reason"`
	SubmittedAt string `json:"submitted_at"`

	// DecidedBy — актор, чей клик закрыл цепочку.
	DecidedBy string    `json:"decided_by"`
	Timestamp time.Time `json:"timestamp"`
}
