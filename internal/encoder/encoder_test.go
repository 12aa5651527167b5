package encoder

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linuxmatters/jivewave/internal/audio"
)

func TestScanProgress(t *testing.T) {
	// ffmpeg interleaves newline-terminated headers with CR-overwritten
	// status lines.
	stderr := "ffmpeg version 6.0\n" +
		"Stream mapping:\n" +
		"frame=    1 fps=0.0 q=29.0 size=       0kB time=00:00:00.03\r" +
		"frame=   42 fps=41.0 q=29.0 size=     256kB time=00:00:01.40\r" +
		"frame=  120 fps=40.2 q=-1.0 Lsize=    1024kB time=00:00:04.00\n" +
		"video:900kB audio:100kB subtitle:0kB\n"

	var frames []int
	tail := scanProgress(strings.NewReader(stderr), func(n int) {
		frames = append(frames, n)
	})

	want := []int{1, 42, 120}
	if len(frames) != len(want) {
		t.Fatalf("got %d progress updates %v, want %v", len(frames), frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("update %d = %d, want %d", i, frames[i], want[i])
		}
	}

	if !strings.Contains(tail, "video:900kB") {
		t.Errorf("tail should keep the last stderr lines, got:\n%s", tail)
	}
}

func TestScanProgressNilCallback(t *testing.T) {
	// Must not panic without a callback.
	tail := scanProgress(strings.NewReader("frame=   10 fps=30\r"), nil)
	if !strings.Contains(tail, "frame=   10") {
		t.Errorf("tail missing status line, got %q", tail)
	}
}

func TestRunnerArgs(t *testing.T) {
	r := New(Config{
		FramePattern: "/tmp/frames/frame_%06d.png",
		AudioPath:    "/tmp/audio.wav",
		OutputPath:   "/tmp/out.mp4",
		FPS:          30,
	})

	args := r.args()
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-y",
		"-framerate 30",
		"-i /tmp/frames/frame_%06d.png",
		"-i /tmp/audio.wav",
		"-c:v libx264",
		"-c:a aac",
		"-shortest",
		"-pix_fmt yuv420p",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("output path should be the final argument, got %q", args[len(args)-1])
	}
}

func TestEncodeMissingFFmpeg(t *testing.T) {
	r := New(Config{FPS: 30, OutputPath: "out.mp4"})
	r.ffmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")

	if err := r.Encode(nil); err == nil {
		t.Fatal("expected error when ffmpeg binary is missing")
	}
}

func TestFrameDirWritesNumberedPNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	fd, err := NewFrameDir(dir)
	if err != nil {
		t.Fatalf("NewFrameDir failed: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.SetRGBA(3, 3, color.RGBA{255, 0, 0, 255})

	for _, index := range []int{0, 7, 123} {
		if err := fd.WriteFrame(index, img); err != nil {
			t.Fatalf("WriteFrame(%d) failed: %v", index, err)
		}
	}

	for _, name := range []string{"frame_000000.png", "frame_000007.png", "frame_000123.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	if !strings.HasSuffix(fd.Pattern(), "frame_%06d.png") {
		t.Errorf("Pattern() = %q, want frame_%%06d.png suffix", fd.Pattern())
	}
}

// WAVWriter output must round-trip through the WAV decoder with only 16-bit
// quantization error.
func TestWAVWriterRoundTrip(t *testing.T) {
	const sampleRate = 8000
	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}
	// Out-of-range samples must clamp rather than wrap.
	samples[0] = 1.5
	samples[1] = -1.5

	path := filepath.Join(t.TempDir(), "audio.wav")
	w := NewWAVWriter(path)
	if err := w.WriteAudio(&audio.Buffer{Samples: samples, SampleRate: sampleRate}); err != nil {
		t.Fatalf("WriteAudio failed: %v", err)
	}

	decoded, err := audio.DecodeFile(path)
	if err != nil {
		t.Fatalf("decoding written WAV: %v", err)
	}

	if decoded.SampleRate != sampleRate {
		t.Errorf("sample rate = %d, want %d", decoded.SampleRate, sampleRate)
	}
	if len(decoded.Samples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(decoded.Samples), len(samples))
	}

	if math.Abs(decoded.Samples[0]-1.0) > 1e-3 {
		t.Errorf("clamped sample 0 = %f, want ~1.0", decoded.Samples[0])
	}
	if math.Abs(decoded.Samples[1]+1.0) > 1e-3 {
		t.Errorf("clamped sample 1 = %f, want ~-1.0", decoded.Samples[1])
	}

	const tolerance = 1.0 / 32000
	for i := 2; i < len(samples); i++ {
		if math.Abs(decoded.Samples[i]-samples[i]) > tolerance {
			t.Fatalf("sample %d = %f, want %f ± %f", i, decoded.Samples[i], samples[i], tolerance)
		}
	}
}
