// Package encoder holds the external collaborators around the core
// pipeline: persisting the rendered frame sequence and decoded audio to
// disk, and driving an ffmpeg subprocess to mux them into the output video.
package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// framePattern is the printf-style filename layout ffmpeg's image2 demuxer
// expects.
const framePattern = "frame_%06d.png"

// FrameDir writes rendered frames as numbered PNGs into a directory. Each
// frame gets its own file named by its index, so concurrent WriteFrame calls
// are safe and arrival order does not matter.
type FrameDir struct {
	dir string
}

// NewFrameDir creates the directory if needed.
func NewFrameDir(dir string) (*FrameDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating frames directory: %w", err)
	}
	return &FrameDir{dir: dir}, nil
}

// Pattern returns the path pattern to hand to ffmpeg's -i flag.
func (d *FrameDir) Pattern() string {
	return filepath.Join(d.dir, framePattern)
}

// WriteFrame encodes one frame to its numbered PNG file.
func (d *FrameDir) WriteFrame(index int, img *image.RGBA) error {
	path := filepath.Join(d.dir, fmt.Sprintf(framePattern, index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
