package handler

import (
	"strings"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
	"github.com/xela07ax/timeoff-flow-prototype/internal/flow"
	"github.com/xela07ax/timeoff-flow-prototype/internal/roster"
	"github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

// Идентификаторы блоков и элементов формы.
const (
	blockBranch     = "branch"
	blockDepartment = "department"
	blockPosition   = "position"
	blockCase       = "case"
	blockTimeRange  = "time_range"
	blockReason     = "reason"
	blockFromDate   = "date_from"
	blockToDate     = "date_to"

	elSelect = "static_select_action"
	elText   = "plain_text_input_action"
	elDate   = "datepicker_action"
)

var branches = []string{"HCMC", "Hanoi"}

var departments = []string{
	"Engineer", "PM", "Designer", "Business", "Marketing", "BackOffice", "BOD",
}

var caseOptions = []slack.Option{
	{Text: slack.PlainText("Paid leave"), Value: string(domain.CasePaidLeave)},
	{Text: slack.PlainText("Late arrival"), Value: string(domain.CaseLateArrival)},
	{Text: slack.PlainText("Early departure"), Value: string(domain.CaseEarlyDeparture)},
	{Text: slack.PlainText("Work from home"), Value: string(domain.CaseWFH)},
}

var positionOptions = []slack.Option{
	{Text: slack.PlainText("Staff"), Value: roster.PositionStaff},
	{Text: slack.PlainText("Manager"), Value: roster.PositionManager},
}

// buildFormView собирает модальную форму заявки.
func buildFormView() slack.View {
	return slack.View{
		Type:       "modal",
		CallbackID: flow.FormCallbackID,
		Title:      slack.PlainText("Time-off request"),
		Submit:     slack.PlainText("Submit"),
		Close:      slack.PlainText("Cancel"),
		Blocks: []slack.Block{
			slack.Divider(),
			slack.Header(slack.PlainText("Details")),
			slack.InputBlock(blockBranch, "Office",
				selectElement("Pick your office", stringOptions(branches))),
			slack.InputBlock(blockDepartment, "Department",
				selectElement("Pick your department", stringOptions(departments))),
			slack.InputBlock(blockPosition, "Position",
				selectElement("Pick your position", positionOptions)),
			slack.InputBlock(blockCase, "Case",
				selectElement("Pick the case", caseOptions)),
			slack.InputBlock(blockFromDate, "From date",
				slack.Element{Type: "datepicker", ActionID: elDate}),
			slack.InputBlock(blockToDate, "To date",
				slack.Element{Type: "datepicker", ActionID: elDate}),
			slack.InputBlock(blockTimeRange, "Time",
				slack.Element{Type: "plain_text_input", ActionID: elText,
					Placeholder: slack.PlainText("9h - 18h")}),
			slack.InputBlock(blockReason, "Reason",
				slack.Element{Type: "plain_text_input", ActionID: elText}),
		},
	}
}

func selectElement(placeholder string, options []slack.Option) slack.Element {
	return slack.Element{
		Type:        "static_select",
		ActionID:    elSelect,
		Placeholder: slack.PlainText(placeholder),
		Options:     options,
	}
}

func stringOptions(values []string) []slack.Option {
	out := make([]slack.Option, 0, len(values))
	for _, v := range values {
		out = append(out, slack.Option{Text: slack.PlainText(v), Value: v})
	}
	return out
}

// parseForm достает значения из state.values заполненной формы.
func parseForm(payload interactionPayload) flow.FormSubmission {
	values := payload.View.State.Values

	sel := func(block string) string {
		return values[block][elSelect].SelectedOption.Value
	}
	text := func(block string) string {
		return values[block][elText].Value
	}
	date := func(block string) string {
		// Datepicker отдает yyyy-mm-dd, формат заявки — dd-mm-yyyy
		parts := strings.Split(values[block][elDate].SelectedDate, "-")
		if len(parts) != 3 {
			return ""
		}
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}

	return flow.FormSubmission{
		Requester:  domain.User{ID: payload.User.ID, Name: payload.User.Name},
		Branch:     sel(blockBranch),
		Department: sel(blockDepartment),
		Position:   sel(blockPosition),
		CaseKind:   domain.CaseKind(sel(blockCase)),
		TimeRange:  text(blockTimeRange),
		Reason:     text(blockReason),
		FromDate:   date(blockFromDate),
		ToDate:     date(blockToDate),
	}
}
