// Package pipeline runs one voice turn: capture, transcribe, answer or reset,
// then speak. A run is single-shot; every failure ends it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"
)

const (
	ResetPhrase = "clear memory"
	ResetReply  = "I have cleared all your memory."
)

type Capturer interface {
	// Capture records one utterance and returns the audio file path.
	Capture(ctx context.Context) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type Responder interface {
	Respond(ctx context.Context, transcript string) (string, error)
}

type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Memory is the history store as seen by a run.
type Memory interface {
	Append(user, assistant string) error
	Clear() error
}

type Deps struct {
	Capturer    Capturer
	Transcriber Transcriber
	Responder   Responder
	Synthesizer Synthesizer
	Memory      Memory

	// Cue, if set, runs right before capture (e.g. a beep).
	Cue func(ctx context.Context)
}

type Result struct {
	Transcript string
	Reply      string
	Cleared    bool
}

type Option func(*Orchestrator)

// WithObserver reports every state the run enters, including Failed.
func WithObserver(f func(State)) Option {
	return func(o *Orchestrator) { o.observe = f }
}

type Orchestrator struct {
	deps    Deps
	observe func(State)
}

func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Capturer == nil:
		return nil, errors.New("pipeline: nil capturer")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: nil transcriber")
	case deps.Responder == nil:
		return nil, errors.New("pipeline: nil responder")
	case deps.Synthesizer == nil:
		return nil, errors.New("pipeline: nil synthesizer")
	case deps.Memory == nil:
		return nil, errors.New("pipeline: nil memory")
	}

	o := &Orchestrator{deps: deps}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// IsResetCommand reports whether the transcript asks to wipe the history.
func IsResetCommand(transcript string) bool {
	return strings.Contains(strings.ToLower(transcript), ResetPhrase)
}

// Run performs one turn. Failures are logged and returned as *StepError.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	o.enter(Idle)

	res, err := o.run(ctx)
	if err != nil {
		o.enter(Failed)
		var se *StepError
		if errors.As(err, &se) {
			log.Error("Run failed", "step", se.State.String(), "err", err)
		} else {
			log.Error("Run failed", "err", err)
		}
		return res, err
	}

	o.enter(Done)
	log.Info("Done")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context) (Result, error) {
	var res Result

	o.enter(Capturing)
	if o.deps.Cue != nil {
		o.deps.Cue(ctx)
	}
	log.Info("Say something! (recording...)")

	audio, err := o.deps.Capturer.Capture(ctx)
	if err != nil {
		return res, &StepError{State: Capturing, Kind: ErrCapture, Err: err}
	}
	if err := checkAudio(audio); err != nil {
		return res, &StepError{State: Capturing, Kind: ErrCapture, Err: err}
	}

	o.enter(Transcribing)
	log.Info("Transcribing", "audio", audio)

	text, err := o.deps.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return res, &StepError{State: Transcribing, Kind: ErrTranscription, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return res, &StepError{State: Transcribing, Kind: ErrEmptyTranscript}
	}
	res.Transcript = text

	log.Info("Heard", "text", text)

	o.enter(Deciding)
	if IsResetCommand(text) {
		if err := o.deps.Memory.Clear(); err != nil {
			return res, &StepError{State: Deciding, Kind: ErrMemory, Err: err}
		}
		res.Cleared = true
		res.Reply = ResetReply
	} else {
		reply, err := o.deps.Responder.Respond(ctx, text)
		if err != nil {
			return res, &StepError{State: Deciding, Kind: ErrResponse, Err: err}
		}
		if err := o.deps.Memory.Append(text, reply); err != nil {
			return res, &StepError{State: Deciding, Kind: ErrMemory, Err: err}
		}
		res.Reply = reply
	}

	o.enter(Responding)
	log.Info("Reply", "text", res.Reply, "cleared", res.Cleared)

	o.enter(Speaking)
	log.Info("Speaking")

	if err := o.speak(ctx, res.Reply); err != nil {
		return res, &StepError{State: Speaking, Kind: ErrSynthesis, Err: err}
	}

	return res, nil
}

// speak starts synthesis and waits for it exactly once. Cancelling ctx
// abandons the wait; the synthesizer is expected to stop on the same ctx.
func (o *Orchestrator) speak(ctx context.Context, reply string) error {
	done := make(chan error, 1)
	go func() {
		done <- o.deps.Synthesizer.Speak(ctx, reply)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) enter(s State) {
	log.Debug("State", "state", s.String())
	if o.observe != nil {
		o.observe(s)
	}
}

func checkAudio(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no recording: %w", err)
	}
	if fi.IsDir() || fi.Size() == 0 {
		return fmt.Errorf("no recording: %s is empty", path)
	}
	return nil
}
