package pipeline

import (
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/jivewave/internal/analyzer"
	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/config"
)

// captureSink records which frame indices were written and their dimensions.
// It must not retain the images themselves: the renderer recycles them after
// WriteFrame returns.
type captureSink struct {
	mu      sync.Mutex
	written map[int]int // index → write count
	dims    image.Point
	fail    bool
}

func (s *captureSink) WriteFrame(index int, img *image.RGBA) error {
	if s.fail {
		return errors.New("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written == nil {
		s.written = make(map[int]int)
	}
	s.written[index]++
	s.dims = image.Pt(img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

type captureAudio struct {
	buf *audio.Buffer
}

func (s *captureAudio) WriteAudio(buf *audio.Buffer) error {
	s.buf = buf
	return nil
}

// writeSineWAV writes a mono 16-bit sine clip and returns its path.
func writeSineWAV(t *testing.T, sampleRate int, numSamples int, amplitude float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, numSamples)
	for i := range data {
		data[i] = int(amplitude * 32000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Data:           data,
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing WAV: %v", err)
	}
	return path
}

func testSettings() config.Settings {
	cfg := config.Default()
	cfg.Width = 160
	cfg.Height = 90
	cfg.Bars = 8
	cfg.SpectrumHeight = 40
	cfg.FPS = 10
	return cfg
}

func TestRunProducesAllFrames(t *testing.T) {
	const (
		sampleRate = 8000
		numSamples = 1600 // 0.2 s → 2 frames at 10 fps
	)
	path := writeSineWAV(t, sampleRate, numSamples, 0.8)

	frames := &captureSink{}
	audioOut := &captureAudio{}
	var progressCalls int
	c := New(testSettings(), frames, audioOut, func(Stage, int, int) { progressCalls++ })

	result, err := c.Run(path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.NumFrames != 2 {
		t.Errorf("NumFrames = %d, want 2", result.NumFrames)
	}
	if result.SampleRate != sampleRate {
		t.Errorf("SampleRate = %d, want %d", result.SampleRate, sampleRate)
	}
	if result.GlobalMax <= 0 {
		t.Errorf("GlobalMax = %f, want > 0 for a loud sine", result.GlobalMax)
	}

	for i := 0; i < result.NumFrames; i++ {
		if frames.written[i] != 1 {
			t.Errorf("frame %d written %d times, want exactly once", i, frames.written[i])
		}
	}
	if len(frames.written) != result.NumFrames {
		t.Errorf("sink saw %d distinct frames, want %d", len(frames.written), result.NumFrames)
	}
	if frames.dims != image.Pt(160, 90) {
		t.Errorf("frame dimensions %v, want (160, 90)", frames.dims)
	}

	if audioOut.buf == nil {
		t.Fatal("audio sink never received the PCM buffer")
	}
	if len(audioOut.buf.Samples) != numSamples {
		t.Errorf("audio sink got %d samples, want %d", len(audioOut.buf.Samples), numSamples)
	}
	if progressCalls == 0 {
		t.Error("progress callback was never invoked")
	}
}

func TestRunSilentClip(t *testing.T) {
	path := writeSineWAV(t, 8000, 800, 0) // 0.1 s of silence → 1 frame

	frames := &captureSink{}
	c := New(testSettings(), frames, nil, nil)

	result, err := c.Run(path)
	if err != nil {
		t.Fatalf("Run failed on silent input: %v", err)
	}
	if result.GlobalMax != 0 {
		t.Errorf("GlobalMax = %f, want 0 for silence", result.GlobalMax)
	}
	if result.NumFrames != 1 || len(frames.written) != 1 {
		t.Errorf("got %d frames (%d written), want 1", result.NumFrames, len(frames.written))
	}
}

func TestRunFrameSinkErrorAborts(t *testing.T) {
	path := writeSineWAV(t, 8000, 1600, 0.8)

	c := New(testSettings(), &captureSink{fail: true}, nil, nil)
	_, err := c.Run(path)
	if err == nil {
		t.Fatal("expected sink error to abort the run")
	}
}

// Invalid analysis settings must be rejected before any decoding happens:
// with a missing input file, the config error wins.
func TestRunChecksConfigBeforeDecode(t *testing.T) {
	cfg := testSettings()
	cfg.Bars = 0

	c := New(cfg, &captureSink{}, nil, nil)
	_, err := c.Run("does-not-exist.wav")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var aerr *analyzer.AnalysisError
	if !errors.As(err, &aerr) {
		t.Errorf("error should be an *AnalysisError, got %T: %v", err, err)
	}
}

func TestRunDecodeErrorPropagates(t *testing.T) {
	c := New(testSettings(), &captureSink{}, nil, nil)
	_, err := c.Run(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing input, got nil")
	}
	var derr *audio.DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("error should be a *DecodeError, got %T: %v", err, err)
	}
}

// Larger run to exercise the worker pool: every index written exactly once.
func TestRunParallelRendering(t *testing.T) {
	path := writeSineWAV(t, 8000, 8000, 0.5) // 1 s → 10 frames

	cfg := testSettings()
	cfg.Workers = 4
	frames := &captureSink{}

	c := New(cfg, frames, nil, nil)
	result, err := c.Run(path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.NumFrames != 10 {
		t.Fatalf("NumFrames = %d, want 10", result.NumFrames)
	}
	for i := 0; i < 10; i++ {
		if frames.written[i] != 1 {
			t.Errorf("frame %d written %d times, want exactly once", i, frames.written[i])
		}
	}
}
