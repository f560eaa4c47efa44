package scheduler

type State string

const (
	StateIdle        State = "idle"
	StatePolling     State = "polling"
	StateProcessing  State = "processing"
	StateCoolingDown State = "cooling_down"
	StateStopped     State = "stopped"
)

// States lists every state, for metrics
var States = []State{StateIdle, StatePolling, StateProcessing, StateCoolingDown, StateStopped}

type Event string

const (
	EventWake              Event = "wake"
	EventFetched           Event = "fetched"
	EventEmpty             Event = "empty"
	EventDone              Event = "done"
	EventTransportFailure  Event = "transport_failure"
	EventUnexpectedFailure Event = "unexpected_failure"
	EventShutdown          Event = "shutdown"
)

type transition struct {
	from  State
	event Event
}

// transitions is the whole scheduling policy. Pairs not listed leave the
// state unchanged, except Shutdown which stops from anywhere.
var transitions = map[transition]State{
	{StateIdle, EventWake}:        StatePolling,
	{StateCoolingDown, EventWake}: StatePolling,

	{StatePolling, EventFetched}:           StateProcessing,
	{StatePolling, EventEmpty}:             StateIdle,
	{StatePolling, EventTransportFailure}:  StateIdle,
	{StatePolling, EventUnexpectedFailure}: StateCoolingDown,

	{StateProcessing, EventDone}:              StateIdle,
	{StateProcessing, EventTransportFailure}:  StateIdle,
	{StateProcessing, EventUnexpectedFailure}: StateCoolingDown,
}

// Next returns the state that follows s on e, and whether e is handled
// in s. Stopped is terminal.
func Next(s State, e Event) (State, bool) {
	if s == StateStopped {
		return StateStopped, false
	}
	if e == EventShutdown {
		return StateStopped, true
	}
	next, ok := transitions[transition{s, e}]
	if !ok {
		return s, false
	}
	return next, true
}
