package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/cli"
	"github.com/linuxmatters/jivewave/internal/config"
	"github.com/linuxmatters/jivewave/internal/encoder"
	"github.com/linuxmatters/jivewave/internal/pipeline"
	"github.com/linuxmatters/jivewave/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input  string `arg:"" name:"input" help:"Input audio file (mp3, wav or flac)" optional:""`
	Output string `arg:"" name:"output" help:"Output MP4 file" optional:""`

	Resolution string `help:"Frame size as WIDTHxHEIGHT, overrides --width and --height" placeholder:"WxH"`
	Width      int    `help:"Frame width in pixels" default:"1920"`
	Height     int    `help:"Frame height in pixels" default:"1080"`
	FPS        int    `help:"Video frame rate" default:"30"`

	Bars                int    `help:"Number of spectrum bars" default:"128"`
	SpectrumHeight      int    `help:"Height of the spectrum band in pixels" default:"200"`
	SpectrumYFromBottom int    `help:"Gap between the band and the bottom edge" default:"0"`
	SpectrumWidth       int    `help:"Width of the spectrum strip, 0 for full frame width"`
	BarColor            string `help:"Bar colour as hex RGB" default:"000000" placeholder:"RRGGBB"`
	BgColor             string `help:"Background colour as hex RGB" default:"ffffff" placeholder:"RRGGBB"`
	BgImage             string `help:"Background image (png or jpeg), scaled to the frame size" type:"path"`
	Title               string `help:"Title text drawn near the top of every frame"`
	TitleFont           string `help:"TTF font file for the title" type:"path"`

	Jobs    int  `help:"Render workers, 0 uses all CPUs"`
	NoUI    bool `name:"no-ui" help:"Disable the interactive progress display"`
	Version bool `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("jivewave"),
		kong.Description("Surf your audio into a smooth spectrum-bar MP4."),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" || CLI.Output == "" {
		cli.PrintError("<input> and <output> are required")
		os.Exit(1)
	}
	if _, err := os.Stat(CLI.Input); err != nil {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	settings, err := buildSettings()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	// Catch a missing ffmpeg before decoding and rendering everything.
	if err := encoder.Preflight(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if err := generate(settings, CLI.Input, CLI.Output); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// buildSettings folds the CLI flags into a validated Settings value.
func buildSettings() (config.Settings, error) {
	s := config.Default()
	s.Width = CLI.Width
	s.Height = CLI.Height
	s.FPS = CLI.FPS
	s.Bars = CLI.Bars
	s.SpectrumHeight = CLI.SpectrumHeight
	s.SpectrumYFromBottom = CLI.SpectrumYFromBottom
	s.SpectrumWidth = CLI.SpectrumWidth
	s.BgImage = CLI.BgImage
	s.Title = CLI.Title
	s.TitleFont = CLI.TitleFont
	s.Workers = CLI.Jobs

	if CLI.Resolution != "" {
		w, h, err := config.ParseResolution(CLI.Resolution)
		if err != nil {
			return s, err
		}
		s.Width, s.Height = w, h
	}

	var err error
	if s.BarColor, err = config.ParseHexColor(CLI.BarColor); err != nil {
		return s, fmt.Errorf("--bar-color: %w", err)
	}
	if s.BgColor, err = config.ParseHexColor(CLI.BgColor); err != nil {
		return s, fmt.Errorf("--bg-color: %w", err)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// generate runs the full pipeline into a temp workspace, then hands the frame
// sequence and WAV track to ffmpeg. The workspace is removed on return.
func generate(settings config.Settings, input, output string) error {
	start := time.Now()

	tmp, err := os.MkdirTemp("", "jivewave-*")
	if err != nil {
		return fmt.Errorf("creating temp workspace: %w", err)
	}
	defer os.RemoveAll(tmp)

	frames, err := encoder.NewFrameDir(filepath.Join(tmp, "frames"))
	if err != nil {
		return fmt.Errorf("creating frame directory: %w", err)
	}
	wavOut := encoder.NewWAVWriter(filepath.Join(tmp, "audio.wav"))

	runner := encoder.New(encoder.Config{
		FramePattern: frames.Pattern(),
		AudioPath:    wavOut.Path(),
		OutputPath:   output,
		FPS:          settings.FPS,
	})

	var result *pipeline.Result
	if CLI.NoUI {
		result, err = runPlain(settings, input, frames, wavOut, runner)
	} else {
		result, err = runWithUI(settings, input, frames, wavOut, runner)
	}
	if err != nil {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", output))
	cli.PrintInfo("Frames", fmt.Sprintf("%d @ %d fps", result.NumFrames, settings.FPS))
	cli.PrintInfo("Audio", fmt.Sprintf("%s @ %d Hz",
		cli.FormatDuration(time.Duration(result.Duration*float64(time.Second))), result.SampleRate))
	cli.PrintInfo("Elapsed", cli.FormatDuration(time.Since(start)))
	return nil
}

// runPlain drives the pipeline and encoder without the TUI.
func runPlain(settings config.Settings, input string,
	frames *encoder.FrameDir, wavOut *encoder.WAVWriter, runner *encoder.Runner) (*pipeline.Result, error) {

	cli.PrintBanner()

	progress := func(stage pipeline.Stage, done, total int) {
		if done != 0 {
			return
		}
		switch stage {
		case pipeline.StageDecode:
			fmt.Println("Decoding audio...")
		case pipeline.StageRender:
			fmt.Printf("Rendering %d frames...\n", total)
		}
	}

	coord := pipeline.New(settings, frames, wavOut, progress)
	result, err := coord.Run(input)
	if err != nil {
		return nil, err
	}

	fmt.Println("Encoding video...")
	if err := runner.Encode(nil); err != nil {
		return nil, err
	}
	return result, nil
}

// teeAudio forwards the decoded buffer to the WAV writer and reports the
// clip's vitals to the UI on the way through.
type teeAudio struct {
	next   pipeline.AudioSink
	notify func(sampleRate int, duration time.Duration)
}

func (t teeAudio) WriteAudio(buf *audio.Buffer) error {
	t.notify(buf.SampleRate, time.Duration(buf.Duration()*float64(time.Second)))
	return t.next.WriteAudio(buf)
}

// errInterrupted is returned when the user quits the UI before the run
// finishes.
var errInterrupted = errors.New("cancelled")

// runOutcome is the worker goroutine's final word, delivered over a channel
// so the UI side never reads a half-written result.
type runOutcome struct {
	result *pipeline.Result
	err    error
}

// runWithUI drives the pipeline and encoder behind the bubbletea display.
func runWithUI(settings config.Settings, input string,
	frames *encoder.FrameDir, wavOut *encoder.WAVWriter, runner *encoder.Runner) (*pipeline.Result, error) {

	p := tea.NewProgram(ui.NewModel())

	// The worker publishes its outcome before sending the final UI message,
	// so once the program quits normally the receive below cannot block.
	outcome := make(chan runOutcome, 1)

	go func() {
		audioOut := teeAudio{next: wavOut, notify: func(rate int, dur time.Duration) {
			p.Send(ui.DecodeDone{SampleRate: rate, Duration: dur})
		}}

		progress := func(stage pipeline.Stage, done, total int) {
			switch stage {
			case pipeline.StageAnalyze:
				if done == total {
					p.Send(ui.AnalyzeDone{Frames: total})
				}
			case pipeline.StageRender:
				p.Send(ui.RenderProgress{Done: done, Total: total})
			}
		}

		start := time.Now()
		coord := pipeline.New(settings, frames, audioOut, progress)
		result, err := coord.Run(input)
		if err != nil {
			outcome <- runOutcome{err: err}
			p.Send(ui.Failed{Err: err})
			return
		}

		err = runner.Encode(func(frame int) {
			p.Send(ui.EncodeProgress{Frame: frame, Total: result.NumFrames})
		})
		if err != nil {
			outcome <- runOutcome{err: err}
			p.Send(ui.Failed{Err: err})
			return
		}

		outcome <- runOutcome{result: result}
		p.Send(ui.Complete{
			Output:  runner.OutputPath(),
			Frames:  result.NumFrames,
			Elapsed: time.Since(start),
		})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running UI: %w", err)
	}
	if m, ok := final.(ui.Model); ok && m.Interrupted() {
		// The worker may still be mid-pipeline; its outcome is abandoned.
		return nil, errInterrupted
	}

	o := <-outcome
	if o.err != nil {
		return nil, o.err
	}
	if o.result == nil {
		return nil, errInterrupted
	}
	return o.result, nil
}
