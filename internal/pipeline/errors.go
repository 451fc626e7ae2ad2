package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrCapture         = errors.New("audio capture failed")
	ErrTranscription   = errors.New("transcription failed")
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrResponse        = errors.New("language model failed")
	ErrMemory          = errors.New("history update failed")
	ErrSynthesis       = errors.New("speech synthesis failed")
)

// StepError is what Run returns on failure. Both Kind and Err match with
// errors.Is.
type StepError struct {
	State State // state the run was in
	Kind  error // one of the Err* kinds above
	Err   error // collaborator's error, may be nil
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.State, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.State, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
