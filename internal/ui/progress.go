// Package ui implements the terminal progress display for a run: one
// bubbletea model that tracks the pipeline from decode through ffmpeg
// encode.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/jivewave/internal/cli"
)

// Phase is the pipeline stage currently shown.
type Phase int

const (
	PhaseDecoding Phase = iota
	PhaseAnalyzing
	PhaseRendering
	PhaseEncoding
	PhaseComplete
)

// Messages sent into the model from the worker goroutine.
type (
	// DecodeDone reports the decoded clip's vitals.
	DecodeDone struct {
		SampleRate int
		Duration   time.Duration
	}

	// AnalyzeDone reports the number of video frames to come.
	AnalyzeDone struct {
		Frames int
	}

	// RenderProgress reports rendered frame counts.
	RenderProgress struct {
		Done  int
		Total int
	}

	// EncodeProgress reports ffmpeg's encoded frame count.
	EncodeProgress struct {
		Frame int
		Total int
	}

	// Complete ends the UI after a successful run.
	Complete struct {
		Output  string
		Frames  int
		Elapsed time.Duration
	}

	// Failed ends the UI after an error; the caller reports the error
	// itself once the program has exited.
	Failed struct {
		Err error
	}
)

var (
	phaseStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.WaveBlue)
	doneStyle  = lipgloss.NewStyle().Foreground(cli.WaveCyan)
	dimStyle   = lipgloss.NewStyle().Foreground(cli.SeaGray)
)

// Model is the bubbletea model for the whole run.
type Model struct {
	bar progress.Model

	phase       Phase
	sampleRate  int
	audioLen    time.Duration
	totalFrames int
	renderDone  int
	encodeFrame int

	output      string
	elapsed     time.Duration
	failed      bool
	interrupted bool
}

// NewModel creates the progress model.
func NewModel() Model {
	return Model{
		bar: progress.New(
			progress.WithGradient(string(cli.WaveDeep), string(cli.WaveCyan)),
			progress.WithWidth(40),
		),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		if w := msg.Width - 20; w > 10 && w < 60 {
			m.bar.Width = w
		}

	case DecodeDone:
		m.phase = PhaseAnalyzing
		m.sampleRate = msg.SampleRate
		m.audioLen = msg.Duration

	case AnalyzeDone:
		m.phase = PhaseRendering
		m.totalFrames = msg.Frames

	case RenderProgress:
		m.renderDone = msg.Done
		m.totalFrames = msg.Total

	case EncodeProgress:
		m.phase = PhaseEncoding
		m.encodeFrame = msg.Frame
		m.totalFrames = msg.Total

	case Complete:
		m.phase = PhaseComplete
		m.output = msg.Output
		m.totalFrames = msg.Frames
		m.elapsed = msg.Elapsed
		return m, tea.Quit

	case Failed:
		m.failed = true
		return m, tea.Quit
	}

	return m, nil
}

// Interrupted reports whether the user cancelled with ctrl+c before the run
// finished. The caller must not read a result from an interrupted run; the
// worker goroutine may still be mid-pipeline.
func (m Model) Interrupted() bool {
	return m.interrupted
}

func (m Model) View() string {
	if m.failed || m.interrupted {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(phaseStyle.Render("Jivewave 🌊"))
	sb.WriteString("\n\n")

	switch m.phase {
	case PhaseDecoding:
		sb.WriteString(phaseStyle.Render("Decoding audio..."))
		sb.WriteString("\n")

	case PhaseAnalyzing:
		sb.WriteString(m.audioLine())
		sb.WriteString(phaseStyle.Render("Analyzing spectrum..."))
		sb.WriteString("\n")

	case PhaseRendering:
		sb.WriteString(m.audioLine())
		sb.WriteString(m.progressLine("Rendering frames", m.renderDone))

	case PhaseEncoding:
		sb.WriteString(m.audioLine())
		sb.WriteString(doneStyle.Render(fmt.Sprintf("✓ Rendered %d frames", m.totalFrames)))
		sb.WriteString("\n")
		sb.WriteString(m.progressLine("Encoding video", m.encodeFrame))

	case PhaseComplete:
		sb.WriteString(doneStyle.Render(fmt.Sprintf("✓ %s (%d frames, %s)",
			m.output, m.totalFrames, cli.FormatDuration(m.elapsed))))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) audioLine() string {
	return dimStyle.Render(fmt.Sprintf("Audio: %s @ %d Hz",
		cli.FormatDuration(m.audioLen), m.sampleRate)) + "\n"
}

func (m Model) progressLine(label string, done int) string {
	pct := 0.0
	if m.totalFrames > 0 {
		pct = float64(done) / float64(m.totalFrames)
		if pct > 1 {
			pct = 1
		}
	}
	return fmt.Sprintf("%s %s %s\n",
		phaseStyle.Render(label),
		m.bar.ViewAs(pct),
		dimStyle.Render(fmt.Sprintf("%d/%d", done, m.totalFrames)))
}
