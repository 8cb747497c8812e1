// Package booking models the customer booking wizard as a pure state
// machine so step validation can be tested without any UI. The transport
// layer only feeds events; no state is held here.
package booking

// Step is a stage of the public booking flow.
type Step string

const (
	StepSelectService Step = "select_service"
	StepSelectSlot    Step = "select_slot"
	StepCustomerInfo  Step = "customer_info"
	StepConfirmed     Step = "confirmed"
)

// Event advances or rewinds the booking flow.
type Event string

const (
	EventServiceChosen Event = "service_chosen"
	EventSlotChosen    Event = "slot_chosen"
	EventSubmitted     Event = "submitted"
	EventBack          Event = "back"
	EventRestart       Event = "restart"
)

// transitions maps step × event to the next step. Absent pairs are invalid.
var transitions = map[Step]map[Event]Step{
	StepSelectService: {
		EventServiceChosen: StepSelectSlot,
	},
	StepSelectSlot: {
		EventSlotChosen: StepCustomerInfo,
		EventBack:       StepSelectService,
	},
	StepCustomerInfo: {
		EventSubmitted: StepConfirmed,
		EventBack:      StepSelectSlot,
	},
	StepConfirmed: {
		EventRestart: StepSelectService,
	},
}

// Next returns the step reached by applying event at step. ok is false when
// the event is not valid at that step; the current step is returned unchanged.
func Next(step Step, event Event) (Step, bool) {
	if next, ok := transitions[step][event]; ok {
		return next, true
	}
	return step, false
}

// Valid reports whether the step is part of the flow.
func (s Step) Valid() bool {
	_, ok := transitions[s]
	return ok
}
