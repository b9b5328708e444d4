package flow

import "github.com/xela07ax/timeoff-flow-prototype/internal/domain"

// Идентификаторы интерактивных элементов. Вшиты в кнопки карточки и
// возвращаются Slack-ом при клике.
const (
	ActionAccept   = "accept_click"
	ActionReject   = "reject_click"
	ActionOpenForm = "open_form_button"

	FormCallbackID = "timeoff_form"
)

// Action — входящее действие согласующего: кто кликнул, по какой карточке
// и с каким payload. Payload — это снапшот заявки, закодированный в value
// кнопки; никакого серверного состояния за ним не стоит.
type Action struct {
	TraceID string

	Actor     domain.User
	ChannelID string // канал карточки
	MessageTS string // ts карточки — ключ mutual-exclusion

	RawPayload []byte
}

// FormSubmission — провалидированные поля модальной формы.
type FormSubmission struct {
	Requester  domain.User
	Branch     string
	Department string
	Position   string
	CaseKind   domain.CaseKind
	TimeRange  string
	Reason     string
	FromDate   string
	ToDate     string
}
