package types

// State represents the message handler state of a worker.
//
// The handler follows a two-state cycle driven solely by message arrival:
//
//	StateIdle → StateComputing → StateIdle
//
// There is no cancellation or timeout state: once a message is accepted it
// runs to completion.
type State int

const (
	// StateIdle indicates the worker is waiting for the next message.
	StateIdle State = iota

	// StateComputing indicates a message is being parsed, computed and stored.
	StateComputing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateComputing:
		return "Computing"
	default:
		return "Unknown"
	}
}
