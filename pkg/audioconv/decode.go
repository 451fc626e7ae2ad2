// Package audioconv converts between audio files and the 16 kHz mono float
// PCM that whisper expects.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

const SampleRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	MaxSamples int // 0 = no limit
}

// SamplesFor is the number of output samples covering d.
func SamplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d * SampleRate / time.Second)
}

type decoder func(io.ReadSeeker) (pcm []float32, sampleRate int, err error)

// oggDecoders are tried in order on Ogg files. Opus is appended when built
// with -tags opus.
var oggDecoders = []decoder{decodeVorbis}

// Decode reads a wav, mp3 or ogg (vorbis/opus) file and returns mono PCM at
// SampleRate. Files without a known extension are sniffed by magic bytes.
func Decode(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decs, err := pickDecoders(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, dec := range decs {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		pcm, sr, err := dec(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return finish(pcm, sr, opt), nil
	}
	return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), errors.Join(errs...))
}

func pickDecoders(f io.ReadSeeker, ext string) ([]decoder, error) {
	switch ext {
	case ".wav":
		return []decoder{decodeWAV}, nil
	case ".mp3":
		return []decoder{decodeMP3}, nil
	case ".ogg", ".oga", ".opus":
		return oggDecoders, nil
	}

	magic, _ := bufio.NewReader(f).Peek(4)
	switch {
	case bytes.HasPrefix(magic, []byte("RIFF")):
		return []decoder{decodeWAV}, nil
	case bytes.HasPrefix(magic, []byte("OggS")):
		return oggDecoders, nil
	case bytes.HasPrefix(magic, []byte("ID3")):
		return []decoder{decodeMP3}, nil
	case len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return []decoder{decodeMP3}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

func finish(pcm []float32, sr int, opt Options) []float32 {
	if sr != SampleRate {
		pcm = resampleLinear(pcm, sr, SampleRate)
	}
	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		pcm = pcm[:opt.MaxSamples]
	}
	return pcm
}

func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, sr := 1, int(dec.SampleRate)
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			sr = buf.Format.SampleRate
		}
	}
	if sr <= 0 {
		sr = 44100
	}

	return downmix(intsToFloat(buf.Data, depth), channels), sr, nil
}

func decodeMP3(r io.ReadSeeker) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, 0, err
	}
	samples := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, samples); err != nil {
		return nil, 0, err
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	// go-mp3 always emits interleaved stereo
	return downmix(int16sToFloat(samples), 2), sr, nil
}

func decodeVorbis(r io.ReadSeeker) ([]float32, int, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, 0, errors.New("invalid ogg/vorbis stream")
	}
	return downmix(pcm, format.Channels), format.SampleRate, nil
}
