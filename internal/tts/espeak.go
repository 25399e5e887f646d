// Package tts is the offline fallback speech backend. It drives espeak-ng
// through cgo with synchronous playback, so synthesis and audio output happen
// in one call and the playback phase has nothing left to do.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
	espeak_VOICE specs = { .languages = "en" };
	espeak_SetVoiceByProperties(&specs);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"chief/pkg/wave"
)

// Speak voices text through the system audio output, blocking until done.
func Speak(text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	rc := C.espeak_say(ctext)
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

// Espeak plugs the blocking Speak call into the synthesizer slot of the
// interaction pipeline. It plays the audio itself and returns an empty
// chunk, which downstream playback treats as a no-op.
type Espeak struct{}

func (Espeak) Synthesize(ctx context.Context, text string) (wave.Chunk, error) {
	if err := Speak(text); err != nil {
		return wave.Chunk{}, err
	}
	return wave.NewChunk(nil, 16000), nil
}
