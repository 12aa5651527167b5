// Package pipeline sequences the stages of a run: decode once, analyze the
// whole clip, then render frames and hand them straight to the sinks.
//
// Analysis finishes before any rendering starts. That ordering is the point:
// bar heights are normalized against the clip-wide maximum so the video's
// scaling is consistent from start to finish instead of auto-gaining per
// frame.
package pipeline

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/linuxmatters/jivewave/internal/analyzer"
	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/config"
	"github.com/linuxmatters/jivewave/internal/renderer"
)

// FrameSink receives rendered frames tagged with their index, one call per
// frame. Frames are not retained by the pipeline after the call returns.
// WriteFrame may be called concurrently from several render workers; index
// order is the sink's concern.
type FrameSink interface {
	WriteFrame(index int, img *image.RGBA) error
}

// AudioSink receives the decoded PCM buffer for muxing into the final
// container. The buffer is read-only.
type AudioSink interface {
	WriteAudio(buf *audio.Buffer) error
}

// Stage identifies a pipeline stage for progress reporting.
type Stage int

const (
	StageDecode Stage = iota
	StageAnalyze
	StageRender
)

// Progress is called as work completes. For StageRender done counts frames;
// the other stages report (0, total) on entry and (total, total) on exit.
type Progress func(stage Stage, done, total int)

// Result summarizes a completed run.
type Result struct {
	SampleRate int
	Duration   float64
	NumFrames  int
	GlobalMax  float64
}

// Coordinator wires the stages together. It holds no mutable state of its
// own; every Run is independent.
type Coordinator struct {
	cfg      config.Settings
	frames   FrameSink
	audioOut AudioSink
	progress Progress
}

// New creates a Coordinator. frames is required; audioOut and progress may
// be nil.
func New(cfg config.Settings, frames FrameSink, audioOut AudioSink, progress Progress) *Coordinator {
	return &Coordinator{cfg: cfg, frames: frames, audioOut: audioOut, progress: progress}
}

// Run executes the pipeline for one input file. Any stage error aborts the
// whole run; no truncated frame sequence is emitted as success.
func (c *Coordinator) Run(inputPath string) (*Result, error) {
	// Configuration problems surface before any audio is read.
	an, err := analyzer.New(c.cfg)
	if err != nil {
		return nil, err
	}
	rend, err := renderer.New(c.cfg)
	if err != nil {
		return nil, err
	}

	c.report(StageDecode, 0, 1)
	buf, err := audio.DecodeFile(inputPath)
	if err != nil {
		return nil, err
	}
	c.report(StageDecode, 1, 1)

	if c.audioOut != nil {
		if err := c.audioOut.WriteAudio(buf); err != nil {
			return nil, fmt.Errorf("audio sink: %w", err)
		}
	}

	res, err := an.Analyze(buf)
	if err != nil {
		return nil, err
	}
	total := len(res.Spectra)
	c.report(StageAnalyze, total, total)

	// All spectra and the global maximum now exist; rendering may begin.
	if err := c.renderAll(rend, res, total); err != nil {
		return nil, err
	}

	return &Result{
		SampleRate: buf.SampleRate,
		Duration:   buf.Duration(),
		NumFrames:  total,
		GlobalMax:  res.GlobalMax,
	}, nil
}

// renderAll renders every frame through a worker pool. The spectra slice and
// global maximum are read-only; each frame index is rendered exactly once
// and handed to the sink immediately, so peak memory stays at one frame per
// worker.
func (c *Coordinator) renderAll(rend *renderer.Renderer, res *analyzer.Result, total int) error {
	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)
	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		aborted  atomic.Bool
		errOnce  sync.Once
		firstErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if aborted.Load() {
					continue
				}
				err := c.renderFrame(rend, res, i)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					aborted.Store(true)
					continue
				}
				c.report(StageRender, int(done.Add(1)), total)
			}
		}()
	}

	for i := 0; i < total; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return firstErr
}

func (c *Coordinator) renderFrame(rend *renderer.Renderer, res *analyzer.Result, i int) error {
	img, err := rend.Render(res.Spectra[i], res.GlobalMax)
	if err != nil {
		return fmt.Errorf("rendering frame %d: %w", i, err)
	}
	defer rend.Release(img)

	if err := c.frames.WriteFrame(i, img); err != nil {
		return fmt.Errorf("writing frame %d: %w", i, err)
	}
	return nil
}

func (c *Coordinator) report(stage Stage, done, total int) {
	if c.progress != nil {
		c.progress(stage, done, total)
	}
}
