package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: SnapshotVersion,
		Requester:     User{ID: "U1", Name: "Requester"},
		CaseKind:      CasePaidLeave,
		Branch:        "HCMC",
		Department:    "engineer",
		Position:      "staff",
		Reason:        "family",
		TimeRange:     "9h - 18h",
		FromDate:      "18-04-2024",
		ToDate:        "19-04-2024",
		SubmittedAt:   "10:00, 17-04-2024",
		Pending: []User{
			{ID: "E1", Name: "Engineer One"},
			{ID: "E2", Name: "Engineer Two"},
			{ID: "HR1", Name: "HR One"},
		},
	}
}

func TestAccept_MovesActorFromPendingToAccepted(t *testing.T) {
	s := newSnapshot()

	require.NoError(t, s.Accept("E1"))

	assert.Equal(t, []User{{ID: "E2", Name: "Engineer Two"}, {ID: "HR1", Name: "HR One"}}, s.Pending)
	assert.Equal(t, []User{{ID: "E1", Name: "Engineer One"}}, s.Accepted)
	assert.False(t, s.Completed())
}

func TestAccept_FullChainCompletes(t *testing.T) {
	s := newSnapshot()

	require.NoError(t, s.Accept("E1"))
	require.NoError(t, s.Accept("E2"))
	assert.False(t, s.Completed())

	require.NoError(t, s.Accept("HR1"))
	assert.True(t, s.Completed())
	assert.Empty(t, s.Pending)
}

func TestAccept_RepeatedClickIsDetected(t *testing.T) {
	s := newSnapshot()
	require.NoError(t, s.Accept("E1"))

	err := s.Accept("E1")
	assert.True(t, errors.Is(err, ErrAlreadyAccepted))

	// Состояние не тронуто
	assert.Len(t, s.Pending, 2)
	assert.Len(t, s.Accepted, 1)
}

func TestAccept_StrangerIsNotEntitled(t *testing.T) {
	s := newSnapshot()

	err := s.Accept("X9")
	assert.True(t, errors.Is(err, ErrNotEntitled))
	assert.Len(t, s.Pending, 3)
	assert.Empty(t, s.Accepted)
}

func TestAccept_KeepsSetsDisjoint(t *testing.T) {
	s := newSnapshot()
	require.NoError(t, s.Accept("E2"))

	for _, a := range s.Accepted {
		assert.False(t, s.IsPending(a.ID))
	}
}

func TestReject_PendingActorMayVeto(t *testing.T) {
	s := newSnapshot()
	require.NoError(t, s.Accept("E1"))

	// Вето не убирает актора из Pending — оно терминально само по себе
	require.NoError(t, s.Reject("E2"))
	assert.True(t, s.IsPending("E2"))
}

func TestReject_AcceptedActorCannotVeto(t *testing.T) {
	s := newSnapshot()
	require.NoError(t, s.Accept("E1"))

	err := s.Reject("E1")
	assert.True(t, errors.Is(err, ErrAlreadyAccepted))
}

func TestReject_StrangerIsNotEntitled(t *testing.T) {
	s := newSnapshot()

	err := s.Reject("X9")
	assert.True(t, errors.Is(err, ErrNotEntitled))
}

func TestDecodeSnapshot_RoundTrip(t *testing.T) {
	s := newSnapshot()
	require.NoError(t, s.Accept("E1"))

	raw, err := s.Encode()
	require.NoError(t, err)

	got, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeSnapshot_MalformedPayloadIsDistinct(t *testing.T) {
	cases := map[string]string{
		"broken json":     `{"v":1,`,
		"missing version": `{"user":{"id":"U1","name":"n"}}`,
		"future version":  `{"v":99,"user":{"id":"U1","name":"n"}}`,
		"empty requester": `{"v":1,"user":{"id":"","name":""}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(raw))
			assert.True(t, errors.Is(err, ErrMalformedPayload))
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, ValidateDateRange("18-04-2024", "18-04-2024"))
	assert.NoError(t, ValidateDateRange("18-04-2024", "20-04-2024"))
	assert.Error(t, ValidateDateRange("21-04-2024", "20-04-2024"))
	assert.Error(t, ValidateDateRange("2024-04-18", "20-04-2024"))
}

func TestDateSpan(t *testing.T) {
	assert.Equal(t, "18-04-2024", DateSpan("18-04-2024", "18-04-2024"))
	assert.Equal(t, "18-04-2024 — 20-04-2024", DateSpan("18-04-2024", "20-04-2024"))
}
