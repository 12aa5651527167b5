// Package analyzer computes per-video-frame magnitude spectra from a decoded
// PCM buffer.
//
// The whole clip is analyzed before anything is rendered: every frame's bar
// values are computed first, then the clip-wide maximum is taken so that
// downstream normalization is stable across the entire video instead of
// auto-gaining per frame.
package analyzer

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/config"
)

// AnalysisError reports invalid analysis configuration. It is raised before
// any frame computation begins.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("spectrum analysis: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Result holds one magnitude spectrum per output video frame, in time order,
// plus the maximum bar value observed anywhere in the clip.
type Result struct {
	// Spectra has exactly ceil(duration * fps) entries, each of exactly the
	// configured bar count. Values are log1p-compressed magnitudes, not yet
	// normalized.
	Spectra [][]float64

	// GlobalMax is the largest bar value across all frames. Zero for a
	// silent clip.
	GlobalMax float64
}

// Analyzer computes bar spectra for video frames. Safe for reuse across
// clips; each Analyze call is independent.
type Analyzer struct {
	fftSize int
	overlap float64
	bars    int
	fps     int
	workers int
}

// New creates an Analyzer from the run settings. Invalid analysis settings
// are rejected here, before any audio is touched.
func New(cfg config.Settings) (*Analyzer, error) {
	switch {
	case cfg.Bars <= 0:
		return nil, &AnalysisError{Err: fmt.Errorf("bar count must be positive, got %d", cfg.Bars)}
	case cfg.FFTSize <= 0:
		return nil, &AnalysisError{Err: fmt.Errorf("FFT size must be positive, got %d", cfg.FFTSize)}
	case cfg.FPS <= 0:
		return nil, &AnalysisError{Err: fmt.Errorf("frame rate must be positive, got %d", cfg.FPS)}
	case cfg.Overlap < 0 || cfg.Overlap >= 1:
		return nil, &AnalysisError{Err: fmt.Errorf("overlap must be in [0, 1), got %g", cfg.Overlap)}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Analyzer{
		fftSize: cfg.FFTSize,
		overlap: cfg.Overlap,
		bars:    cfg.Bars,
		fps:     cfg.FPS,
		workers: workers,
	}, nil
}

// Analyze computes the full sequence of bar spectra for the clip.
//
// Frames are independent of each other, so they are computed by a pool of
// workers, each with its own FFT plan and scratch buffers. The PCM buffer is
// read-only and each worker writes only its own frame indices, so no locking
// is needed. GlobalMax is taken only after every frame is done.
func (a *Analyzer) Analyze(buf *audio.Buffer) (*Result, error) {
	if buf.SampleRate <= 0 {
		return nil, &AnalysisError{Err: fmt.Errorf("sample rate must be positive, got %d", buf.SampleRate)}
	}

	numFrames := int(math.Ceil(buf.Duration() * float64(a.fps)))
	if numFrames == 0 {
		return &Result{Spectra: [][]float64{}, GlobalMax: 0}, nil
	}

	mapping := newBinMapping(buf.SampleRate, a.fftSize, a.bars)
	spectra := make([][]float64, numFrames)

	workers := min(a.workers, numFrames)
	frames := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fft := fourier.NewFFT(a.fftSize)
			window := make([]float64, a.fftSize)
			coeffs := make([]complex128, a.fftSize/2+1)
			for i := range frames {
				spectra[i] = a.computeFrame(buf, i, mapping, fft, window, coeffs)
			}
		}()
	}
	for i := 0; i < numFrames; i++ {
		frames <- i
	}
	close(frames)
	wg.Wait()

	var globalMax float64
	for _, spectrum := range spectra {
		for _, v := range spectrum {
			if v > globalMax {
				globalMax = v
			}
		}
	}

	return &Result{Spectra: spectra, GlobalMax: globalMax}, nil
}

// computeFrame produces the bar spectrum for one video frame. The analysis
// window is centered on the frame's timestamp and zero-padded where it runs
// past either end of the clip.
func (a *Analyzer) computeFrame(buf *audio.Buffer, frameIndex int, mapping *binMapping, fft *fourier.FFT, window []float64, coeffs []complex128) []float64 {
	center := int(math.Round(float64(frameIndex) / float64(a.fps) * float64(buf.SampleRate)))
	extractWindow(buf.Samples, center-a.fftSize/2, window)
	applyHann(window)

	coeffs = fft.Coefficients(coeffs, window)

	magnitudes := make([]float64, len(coeffs))
	for i, c := range coeffs {
		magnitudes[i] = math.Hypot(real(c), imag(c))
	}

	bars := mapping.aggregate(magnitudes)
	for i, v := range bars {
		bars[i] = math.Log1p(v)
	}
	return bars
}

// extractWindow copies len(dst) samples starting at start, substituting zeros
// for positions outside the clip.
func extractWindow(samples []float64, start int, dst []float64) {
	for i := range dst {
		pos := start + i
		if pos >= 0 && pos < len(samples) {
			dst[i] = samples[pos]
		} else {
			dst[i] = 0
		}
	}
}

// applyHann tapers the window in place with a Hann (raised cosine) curve to
// reduce spectral leakage.
func applyHann(window []float64) {
	n := len(window)
	if n < 2 {
		return
	}
	for i := range window {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		window[i] *= w
	}
}
