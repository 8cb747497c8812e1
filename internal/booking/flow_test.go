package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Step
		event   Event
		want    Step
		allowed bool
	}{
		{"choose service", StepSelectService, EventServiceChosen, StepSelectSlot, true},
		{"choose slot", StepSelectSlot, EventSlotChosen, StepCustomerInfo, true},
		{"submit details", StepCustomerInfo, EventSubmitted, StepConfirmed, true},
		{"back from slot", StepSelectSlot, EventBack, StepSelectService, true},
		{"back from details", StepCustomerInfo, EventBack, StepSelectSlot, true},
		{"restart after confirmation", StepConfirmed, EventRestart, StepSelectService, true},
		{"cannot skip to submit", StepSelectService, EventSubmitted, StepSelectService, false},
		{"cannot submit twice", StepConfirmed, EventSubmitted, StepConfirmed, false},
		{"cannot go back from first step", StepSelectService, EventBack, StepSelectService, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := Next(tc.from, tc.event)
			assert.Equal(t, tc.allowed, ok)
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestStepValid(t *testing.T) {
	assert.True(t, StepSelectSlot.Valid())
	assert.False(t, Step("checkout").Valid())
}
