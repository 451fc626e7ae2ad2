// Package espeak speaks through libespeak-ng with synchronous playback.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
tara_espeak_say(const char *text, const char *lang, int rate)
{
	if (!text || !lang)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { .languages = lang };
	espeak_SetVoiceByProperties(&specs);
	if (rate > 0)
	{ espeak_SetParameter(espeakRATE, rate, 0); }

	espeak_ERROR rc = espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return rc == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

type Speaker struct {
	Language string // espeak voice language, e.g. "en"
	Rate     int    // words per minute, 0 = default

	// libespeak keeps global state
	mu sync.Mutex
}

func New(language string, rate int) *Speaker {
	if language == "" {
		language = "en"
	}
	return &Speaker{Language: language, Rate: rate}
}

// Speak blocks until playback is done. Playback cannot be interrupted once
// started; ctx is only checked before.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(s.Language)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.tara_espeak_say(ctext, clang, C.int(s.Rate)); rc != 0 {
		return fmt.Errorf("espeak: synth failed: %d", int(rc))
	}
	return nil
}
