package audio

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files.
type FLACDecoder struct {
	stream *flac.Stream

	// leftover holds downmixed samples from the last parsed FLAC frame that
	// did not fit in the previous ReadChunk call.
	leftover []float64
}

// NewFLACDecoder opens a FLAC file for decoding. Sample rate and channel
// count come from the StreamInfo metadata block.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	stream, err := flac.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC stream: %w", err)
	}
	return &FLACDecoder{stream: stream}, nil
}

// ReadChunk reads the next chunk of mono samples. FLAC frames carry one
// subframe per channel; channels are averaged per sample index.
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	samples := make([]float64, 0, numSamples)

	if len(d.leftover) > 0 {
		take := min(numSamples, len(d.leftover))
		samples = append(samples, d.leftover[:take]...)
		d.leftover = d.leftover[take:]
	}

	for len(samples) < numSamples {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				if len(samples) == 0 {
					return nil, io.EOF
				}
				return samples, nil
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// Samples are signed integers scaled by the frame bit depth.
		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		nChans := len(frame.Subframes)
		frameSamples := len(frame.Subframes[0].Samples)

		for i := 0; i < frameSamples; i++ {
			var sum int64
			for _, sub := range frame.Subframes {
				sum += int64(sub.Samples[i])
			}
			s := float64(sum) / float64(nChans) / maxVal
			if len(samples) < numSamples {
				samples = append(samples, s)
			} else {
				d.leftover = append(d.leftover, s)
			}
		}
	}

	return samples, nil
}

// SampleRate returns the sample rate.
func (d *FLACDecoder) SampleRate() int {
	return int(d.stream.Info.SampleRate)
}

// NumChannels returns the channel count of the source stream.
func (d *FLACDecoder) NumChannels() int {
	return int(d.stream.Info.NChannels)
}

// Close closes the underlying stream.
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		return d.stream.Close()
	}
	return nil
}
