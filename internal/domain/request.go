package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotVersion — текущая версия схемы снапшота.
// Снапшот целиком путешествует внутри payload кнопки, поэтому любое изменение
// структуры ломает «живые» заявки, созданные до деплоя. Версия позволяет
// отличить устаревший payload от битого.
const SnapshotVersion = 1

var (
	ErrNotEntitled      = errors.New("actor is not an entitled approver for this request")
	ErrAlreadyAccepted  = errors.New("actor has already accepted this request")
	ErrMalformedPayload = errors.New("malformed action payload")
)

// User — идентичность участника процесса (Slack ID + отображаемое имя).
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CaseKind — категория заявки об отсутствии.
type CaseKind string

const (
	CaseLateArrival    CaseKind = "late_arrival"
	CaseEarlyDeparture CaseKind = "early_departure"
	CasePaidLeave      CaseKind = "paid_leave"
	CaseWFH            CaseKind = "wfh"
)

// Статусы State Machine заявки.
type RequestStatus string

const (
	StatusAwaiting RequestStatus = "AWAITING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Snapshot — единственный источник правды по открытой заявке.
// Сервер не хранит заявки: полное состояние кодируется в value кнопок
// Accept/Reject и восстанавливается из него на каждом клике.
type Snapshot struct {
	SchemaVersion int `json:"v"`

	Requester User     `json:"user"`
	CaseKind  CaseKind `json:"case"`

	// Классификация — только для отображения и для резолва согласующих
	// в момент подачи заявки.
	Branch     string `json:"branch"`
	Department string `json:"department"`
	Position   string `json:"position"`

	Reason    string `json:"reason"`
	TimeRange string `json:"time_range"`
	FromDate  string `json:"from_date"` // dd-mm-yyyy
	ToDate    string `json:"to_date"`   // dd-mm-yyyy

	SubmittedAt string `json:"sent_at"`

	// Pending — упорядоченное множество тех, кто еще вправе согласовать.
	// Accepted — те, кто уже нажал Accept. Инвариант: множества не пересекаются.
	Pending  []User `json:"pending"`
	Accepted []User `json:"accepted"`
}

// IsPending сообщает, вправе ли актор еще принимать решение по заявке.
func (s *Snapshot) IsPending(actorID string) bool {
	for _, u := range s.Pending {
		if u.ID == actorID {
			return true
		}
	}
	return false
}

// HasAccepted сообщает, зафиксирован ли уже Accept данного актора.
func (s *Snapshot) HasAccepted(actorID string) bool {
	for _, u := range s.Accepted {
		if u.ID == actorID {
			return true
		}
	}
	return false
}

// Accept переносит актора из Pending в Accepted.
// Повторный клик уже согласовавшего — ErrAlreadyAccepted (идемпотентный no-op
// для вызывающего). Чужой актор — ErrNotEntitled. Заявка считается полностью
// согласованной, когда Pending опустел именно в результате переносов.
func (s *Snapshot) Accept(actorID string) error {
	if s.HasAccepted(actorID) {
		return ErrAlreadyAccepted
	}

	for i, u := range s.Pending {
		if u.ID != actorID {
			continue
		}
		s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
		s.Accepted = append(s.Accepted, u)
		return nil
	}

	return ErrNotEntitled
}

// Reject валидирует право актора на вето. Само вето терминально: одна
// отклонившая сторона закрывает заявку независимо от остальных Pending,
// актор при этом из Pending не убирается.
//
// Актору, уже нажавшему Accept, вето недоступно: свое решение по заявке он
// израсходовал, и финальный статус не должен зависеть от порядка его кликов.
func (s *Snapshot) Reject(actorID string) error {
	if s.HasAccepted(actorID) {
		return ErrAlreadyAccepted
	}
	if !s.IsPending(actorID) {
		return ErrNotEntitled
	}
	return nil
}

// Completed — Pending опустошен переносами, ни одного Reject не было.
func (s *Snapshot) Completed() bool {
	return len(s.Pending) == 0 && len(s.Accepted) > 0
}

// Encode сериализует снапшот для вставки в value кнопки.
func (s *Snapshot) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(raw), nil
}

// DecodeSnapshot восстанавливает снапшот из payload кнопки.
// Битый JSON и неизвестная версия схемы дают различимый ErrMalformedPayload —
// ошибка конфигурации/деплоя, а не отказ в авторизации.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if s.SchemaVersion != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrMalformedPayload, s.SchemaVersion)
	}
	if s.Requester.ID == "" {
		return nil, fmt.Errorf("%w: empty requester", ErrMalformedPayload)
	}
	return &s, nil
}
