package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
)

type fakeSource struct {
	rows [][]string
	err  error
}

func (f *fakeSource) ReadRange(context.Context, string, string) ([][]string, error) {
	return f.rows, f.err
}

func testRoster() *fakeSource {
	return &fakeSource{rows: [][]string{
		{"E1", "Engineer One", "staff", "engineer"},
		{"E2", "Engineer Two", "staff", "engineer"},
		{"EM1", "Engineer Lead", "manager", "engineer"},
		{"HR1", "HR One", "staff", "hr"},
		{"HRM1", "HR Lead", "manager", "hr"},
		{"B1", "Director", "manager", "bod"},
	}}
}

func newTestResolver(src TabularSource) *Resolver {
	return NewResolver(src, "confirm-request", "!A2:D", zap.NewNop())
}

func ids(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestResolve_StaffGetsEmployeesPlusHR(t *testing.T) {
	r := newTestResolver(testRoster())

	got, err := r.Resolve(context.Background(), "Engineer", PositionStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2", "HR1"}, ids(got))
}

func TestResolve_ManagerGetsManagersPlusHR(t *testing.T) {
	r := newTestResolver(testRoster())

	got, err := r.Resolve(context.Background(), "engineer", PositionManager)
	require.NoError(t, err)
	assert.Equal(t, []string{"EM1", "HR1"}, ids(got))
}

func TestResolve_ExecutiveIgnoresPosition(t *testing.T) {
	r := newTestResolver(testRoster())

	for _, pos := range []string{PositionStaff, PositionManager} {
		got, err := r.Resolve(context.Background(), "BOD", pos)
		require.NoError(t, err)
		assert.Equal(t, []string{"B1"}, ids(got))
	}
}

func TestResolve_HRStaffDoesNotDuplicate(t *testing.T) {
	r := newTestResolver(testRoster())

	// Для заявителя из HR hr-сотрудники попадают в состав один раз.
	got, err := r.Resolve(context.Background(), "hr", PositionStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{"HR1"}, ids(got))
}

func TestResolve_UnknownDepartmentIsDistinctError(t *testing.T) {
	r := newTestResolver(testRoster())

	_, err := r.Resolve(context.Background(), "warehouse", PositionStaff)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDepartment))
	assert.False(t, errors.Is(err, ErrNoApprovers))
}

func TestResolve_EmptySetIsConfigurationError(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		// Отдел есть, но согласовывать некому: единственная строка
		// с неизвестным рангом отбрасывается при загрузке.
		{"D1", "Designer", "intern", "designer"},
		{"D2", "Designer Two", "manager", "designer"},
	}}
	r := newTestResolver(src)

	_, err := r.Resolve(context.Background(), "designer", PositionStaff)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoApprovers))
}

func TestResolve_SourceFailurePropagates(t *testing.T) {
	r := newTestResolver(&fakeSource{err: errors.New("boom")})

	_, err := r.Resolve(context.Background(), "engineer", PositionStaff)
	assert.Error(t, err)
}
