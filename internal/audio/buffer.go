package audio

import (
	"errors"
	"io"
)

// Buffer is a fully decoded clip: mono samples in roughly [-1, 1] tagged with
// the rate they were sampled at. Treated as read-only once created, so it can
// be shared freely across analysis workers.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// decodeChunkSize is the read granularity when draining a decoder.
const decodeChunkSize = 8192

// DecodeFile decodes an entire audio file into a mono Buffer. Any failure,
// including a stream with no decodable samples, is reported as a DecodeError.
func DecodeFile(path string) (*Buffer, error) {
	dec, err := Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer dec.Close()

	var samples []float64
	for {
		chunk, err := dec.ReadChunk(decodeChunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		samples = append(samples, chunk...)
	}

	if len(samples) == 0 {
		return nil, &DecodeError{Path: path, Err: errors.New("no decodable samples")}
	}
	if dec.SampleRate() <= 0 {
		return nil, &DecodeError{Path: path, Err: errors.New("missing sample rate")}
	}

	return &Buffer{Samples: samples, SampleRate: dec.SampleRate()}, nil
}
