package encoder

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/jivewave/internal/audio"
)

// WAVWriter persists the decoded PCM buffer as a mono 16-bit WAV file for
// ffmpeg to mux into the final container.
type WAVWriter struct {
	path string
}

// NewWAVWriter writes to the given path when the buffer arrives.
func NewWAVWriter(path string) *WAVWriter {
	return &WAVWriter{path: path}
}

// WriteAudio converts the float samples to 16-bit PCM, clamping to [-1, 1].
func (w *WAVWriter) WriteAudio(buf *audio.Buffer) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", w.path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, 1, 1)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		data[i] = int(s * 32767.0)
	}

	intBuf := &gaudio.IntBuffer{
		Data:           data,
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("writing WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing WAV: %w", err)
	}
	return nil
}

// Path returns the destination file path.
func (w *WAVWriter) Path() string {
	return w.path
}
