package pipeline

type State int

const (
	Idle State = iota
	Capturing
	Transcribing
	Deciding
	Responding
	Speaking
	Done
	Failed
)

var stateNames = [...]string{
	Idle:         "idle",
	Capturing:    "capturing",
	Transcribing: "transcribing",
	Deciding:     "deciding",
	Responding:   "responding",
	Speaking:     "speaking",
	Done:         "done",
	Failed:       "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
