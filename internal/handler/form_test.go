package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
)

func TestParseForm(t *testing.T) {
	raw := `{
		"type": "view_submission",
		"user": {"id": "U42", "name": "alice"},
		"view": {
			"callback_id": "timeoff_form",
			"state": {"values": {
				"branch":     {"static_select_action": {"selected_option": {"value": "HCMC"}}},
				"department": {"static_select_action": {"selected_option": {"value": "Engineer"}}},
				"position":   {"static_select_action": {"selected_option": {"value": "staff"}}},
				"case":       {"static_select_action": {"selected_option": {"value": "paid_leave"}}},
				"date_from":  {"datepicker_action": {"selected_date": "2024-04-18"}},
				"date_to":    {"datepicker_action": {"selected_date": "2024-04-22"}},
				"time_range": {"plain_text_input_action": {"value": "9h - 18h"}},
				"reason":     {"plain_text_input_action": {"value": "family trip"}}
			}}
		}
	}`

	var payload interactionPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	form := parseForm(payload)

	assert.Equal(t, "U42", form.Requester.ID)
	assert.Equal(t, "HCMC", form.Branch)
	assert.Equal(t, "Engineer", form.Department)
	assert.Equal(t, "staff", form.Position)
	assert.Equal(t, domain.CasePaidLeave, form.CaseKind)
	assert.Equal(t, "9h - 18h", form.TimeRange)
	assert.Equal(t, "family trip", form.Reason)
	// Даты приводятся из формата datepicker к формату заявки
	assert.Equal(t, "18-04-2024", form.FromDate)
	assert.Equal(t, "22-04-2024", form.ToDate)
}

func TestParseForm_MissingDateBecomesEmpty(t *testing.T) {
	var payload interactionPayload
	require.NoError(t, json.Unmarshal([]byte(`{"view":{"state":{"values":{}}}}`), &payload))

	form := parseForm(payload)
	assert.Empty(t, form.FromDate)
	assert.Empty(t, form.ToDate)
}

func TestBuildFormView_CoversAllFields(t *testing.T) {
	view := buildFormView()

	assert.Equal(t, "modal", view.Type)
	assert.Equal(t, "timeoff_form", view.CallbackID)

	ids := map[string]bool{}
	for _, b := range view.Blocks {
		if b.Type == "input" {
			ids[b.BlockID] = true
		}
	}
	for _, want := range []string{
		blockBranch, blockDepartment, blockPosition, blockCase,
		blockFromDate, blockToDate, blockTimeRange, blockReason,
	} {
		assert.True(t, ids[want], "missing input block %q", want)
	}
}
