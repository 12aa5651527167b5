// Package audio decodes compressed audio files into a mono PCM buffer.
//
// Each supported container has its own Decoder implementation; all of them
// downmix multi-channel input to mono by averaging the channels per sample
// index, with no channel weighting.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder is implemented by all audio format decoders.
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples. Returns io.EOF when the
	// stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// NumChannels returns the channel count of the source stream (before
	// downmixing).
	NumChannels() int

	// Close releases the underlying file.
	Close() error
}

// Open creates a decoder for the given file based on its extension.
func Open(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return NewMP3Decoder(path)
	case ".wav":
		return NewWAVDecoder(path)
	case ".flac":
		return NewFLACDecoder(path)
	default:
		return nil, fmt.Errorf("unsupported audio format %q (supported: .mp3, .wav, .flac)", filepath.Ext(path))
	}
}

// DecodeError reports a fatal decoding failure: malformed stream, unsupported
// codec, or a stream with zero decodable samples. No partial output
// accompanies it.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
