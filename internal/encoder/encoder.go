package encoder

import (
	"fmt"
	"os/exec"
	"strconv"
)

// Config describes one encode job: a numbered PNG sequence plus a WAV track
// muxed into an H.264/AAC MP4.
type Config struct {
	FramePattern string
	AudioPath    string
	OutputPath   string
	FPS          int
}

// Runner drives a single ffmpeg subprocess.
type Runner struct {
	cfg Config

	// ffmpegPath overrides PATH lookup; used by tests.
	ffmpegPath string
}

// New creates a Runner for one job.
func New(cfg Config) *Runner {
	return &Runner{cfg: cfg, ffmpegPath: "ffmpeg"}
}

// OutputPath returns the destination file for this job.
func (r *Runner) OutputPath() string {
	return r.cfg.OutputPath
}

// Preflight reports an error when ffmpeg is not installed, so a run can fail
// before decoding rather than after rendering every frame.
func Preflight() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH (install ffmpeg to encode video): %w", err)
	}
	return nil
}

// args builds the ffmpeg argument list. -shortest trims the video to the
// audio length when frame-count rounding leaves them off by a frame.
func (r *Runner) args() []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(r.cfg.FPS),
		"-i", r.cfg.FramePattern,
		"-i", r.cfg.AudioPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		"-pix_fmt", "yuv420p",
		r.cfg.OutputPath,
	}
}

// Encode runs ffmpeg to completion. onProgress, when non-nil, receives the
// encoded frame count parsed from ffmpeg's stderr as encoding proceeds. On
// failure the error includes the tail of stderr, since ffmpeg reports its
// diagnostics there.
func (r *Runner) Encode(onProgress func(frame int)) error {
	cmd := exec.Command(r.ffmpegPath, r.args()...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	// Drain stderr before Wait: Wait closes the pipe.
	tail := scanProgress(stderr, onProgress)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, tail)
	}
	return nil
}
