package reconcile

import (
	"fmt"

	"edi-exchange/feature/exchange/models"
)

// Event is an observation or action that moves a record to another state.
type Event string

const (
	EventSent          Event = "sent"
	EventSendFailed    Event = "send_failed"
	EventDone          Event = "done"
	EventErrored       Event = "errored"
	EventReceived      Event = "received"
	EventProcessed     Event = "processed"
	EventProcessFailed Event = "process_failed"
)

// targets maps each event to the state it leads to.
var targets = map[Event]models.State{
	EventSent:          models.StateOutputSent,
	EventSendFailed:    models.StateOutputErrorOnSend,
	EventDone:          models.StateOutputSentAndProcessed,
	EventErrored:       models.StateOutputSentAndError,
	EventReceived:      models.StateInputReceived,
	EventProcessed:     models.StateInputProcessed,
	EventProcessFailed: models.StateInputProcessedWithError,
}

// transitions lists the events each state accepts.
// output_sent_and_processed and input_processed are terminal.
var transitions = map[models.State][]Event{
	models.StateNew:                {EventSent, EventSendFailed, EventDone, EventReceived},
	models.StateOutputNotSent:      {EventSent, EventSendFailed, EventDone},
	models.StateOutputErrorOnSend:  {EventSent, EventSendFailed, EventDone},
	models.StateOutputSent:         {EventSent, EventSendFailed, EventDone, EventErrored},
	models.StateOutputSentAndError: {EventDone, EventSent, EventSendFailed},

	models.StateInputReceived:           {EventProcessed, EventProcessFailed},
	models.StateInputReadError:          {EventReceived},
	models.StateInputProcessedWithError: {EventReceived, EventProcessed, EventProcessFailed},
}

// Allowed reports whether a record in state current accepts ev.
func Allowed(current models.State, ev Event) bool {
	for _, e := range transitions[current] {
		if e == ev {
			return true
		}
	}
	return false
}

// Next returns the state reached from current on ev.
func Next(current models.State, ev Event) (models.State, error) {
	if !Allowed(current, ev) {
		return "", fmt.Errorf("%w: %s on %s", ErrIllegalTransition, current, ev)
	}
	return targets[ev], nil
}
