package servicerecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtransit/internal/core/apperror"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPrefactured, false},
		{StatusPending, StatusInvoiced, false},

		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusPending, true},
		{StatusInProgress, StatusPrefactured, false},

		{StatusCompleted, StatusPrefactured, true},
		{StatusCompleted, StatusPending, true},
		{StatusCompleted, StatusInProgress, true},
		{StatusCompleted, StatusInvoiced, false},

		{StatusPrefactured, StatusInvoiced, true},
		{StatusPrefactured, StatusPending, false},
		{StatusPrefactured, StatusCompleted, false},

		{StatusInvoiced, StatusPending, false},
		{StatusInvoiced, StatusInProgress, false},
		{StatusInvoiced, StatusCompleted, false},
		{StatusInvoiced, StatusPrefactured, false},
		{StatusInvoiced, StatusInvoiced, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestCheckTransition_Errors(t *testing.T) {
	err := CheckTransition(StatusInvoiced, StatusPending)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "invoiced", appErr.Details["from"])
	assert.Equal(t, "pending", appErr.Details["to"])

	err = CheckTransition(StatusPending, Status("shipped"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusPending.Editable())
	assert.True(t, StatusInProgress.Editable())
	assert.False(t, StatusCompleted.Editable())
	assert.False(t, StatusPrefactured.Editable())
	assert.False(t, StatusInvoiced.Editable())

	assert.True(t, StatusInvoiced.Terminal())
	assert.False(t, StatusPrefactured.Terminal())

	assert.True(t, StatusPrefactured.Linked())
	assert.True(t, StatusInvoiced.Linked())
	assert.False(t, StatusCompleted.Linked())
}
