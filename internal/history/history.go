// Package history keeps the rolling conversation log on disk.
//
// Every operation reads the file, mutates the log and writes it back before
// returning. Nothing is cached between calls and there is no locking: one
// writer per file is assumed.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const DefaultMaxSize = 50

var ErrCorrupt = errors.New("history storage corrupt")

// CorruptError is returned when the history file exists but does not hold a
// list of {user, assistant} pairs.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// History is ordered oldest first.
type History []Exchange

// Tail returns a copy of the last n exchanges.
func (h History) Tail(n int) History {
	if n <= 0 {
		return History{}
	}
	if n > len(h) {
		n = len(h)
	}
	return append(History{}, h[len(h)-n:]...)
}

type Store struct {
	path    string
	maxSize int
}

func NewStore(path string, maxSize int) *Store {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Store{path: path, maxSize: maxSize}
}

func (s *Store) Path() string { return s.path }

func (s *Store) MaxSize() int { return s.maxSize }

// Load reads the stored log. A missing file is an empty log and is not
// created.
func (s *Store) Load() (History, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	h, err := decode(data)
	if err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	return h, nil
}

// Append adds one exchange and keeps only the last MaxSize entries.
func (s *Store) Append(user, assistant string) error {
	h, err := s.Load()
	if err != nil {
		return err
	}

	h = append(h, Exchange{User: user, Assistant: assistant})
	if len(h) > s.maxSize {
		h = h[len(h)-s.maxSize:]
	}

	return s.save(h)
}

// Clear replaces whatever is stored with an empty log, even a corrupt file.
func (s *Store) Clear() error {
	return s.save(History{})
}

// decode walks the tokens itself: encoding/json would fold key case and let
// a repeated key overwrite the first one.
func decode(data []byte) (History, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	h := History{}
	for i := 0; dec.More(); i++ {
		e, err := decodeExchange(dec)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		h = append(h, e)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after list")
	}
	return h, nil
}

func decodeExchange(dec *json.Decoder) (Exchange, error) {
	var e Exchange

	if err := expectDelim(dec, '{'); err != nil {
		return e, err
	}

	seen := make(map[string]bool, 2)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return e, err
		}
		key, _ := tok.(string)
		if seen[key] {
			return e, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true

		tok, err = dec.Token()
		if err != nil {
			return e, err
		}
		val, ok := tok.(string)
		if !ok {
			return e, fmt.Errorf("key %q: want string, got %v", key, tok)
		}

		switch key {
		case "user":
			e.User = val
		case "assistant":
			e.Assistant = val
		default:
			return e, fmt.Errorf("unknown key %q", key)
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return e, err
	}
	if !seen["user"] || !seen["assistant"] {
		return e, errors.New("missing user or assistant")
	}
	return e, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}

func encode(h History) ([]byte, error) {
	if h == nil {
		h = History{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (s *Store) save(h History) error {
	data, err := encode(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
