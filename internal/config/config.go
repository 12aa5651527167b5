// Package config holds the settings shared by the analysis, rendering and
// encoding stages. Settings are populated by the CLI layer, validated once up
// front, and treated as read-only by every stage after that.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Analysis constants. These are fixed by design: changing the FFT size or the
// window overlap changes the visible output, so they are not exposed as flags.
const (
	FFTSize = 2048
	Overlap = 0.5
)

// Defaults for the flag-driven settings.
const (
	DefaultWidth          = 1920
	DefaultHeight         = 1080
	DefaultFPS            = 30
	DefaultBars           = 128
	DefaultSpectrumHeight = 200
)

// Settings is the full configuration for one run.
type Settings struct {
	// Output video dimensions in pixels.
	Width  int `validate:"gt=0"`
	Height int `validate:"gt=0"`

	// Frame rate of the output video.
	FPS int `validate:"gt=0"`

	// Number of spectrum bars.
	Bars int `validate:"gt=0"`

	// Height of the spectrum band in pixels. Bars are vertically centered
	// within this band; the band is clipped to the frame if taller.
	SpectrumHeight int `validate:"gt=0"`

	// Distance in pixels from the bottom of the frame to the bottom edge of
	// the spectrum band.
	SpectrumYFromBottom int `validate:"gte=0"`

	// Width of the bar strip in pixels, centered horizontally. Zero means
	// full frame width.
	SpectrumWidth int `validate:"gte=0"`

	// FFT window size in samples.
	FFTSize int `validate:"gt=0"`

	// Window overlap fraction, 0.0 (none) to just under 1.0.
	Overlap float64 `validate:"gte=0,lt=1"`

	// Bar and background colors. BgImage overrides BgColor when set.
	BarColor color.RGBA
	BgColor  color.RGBA
	BgImage  string

	// Optional title overlay. TitleFont is a TTF file path and is required
	// whenever Title is set, since no font is embedded.
	Title     string
	TitleFont string

	// Number of parallel workers for analysis and rendering. Zero means one
	// worker per CPU.
	Workers int `validate:"gte=0"`
}

// Default returns the settings used when no flags override them.
func Default() Settings {
	return Settings{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		FPS:            DefaultFPS,
		Bars:           DefaultBars,
		SpectrumHeight: DefaultSpectrumHeight,
		FFTSize:        FFTSize,
		Overlap:        Overlap,
		BarColor:       color.RGBA{0, 0, 0, 255},
		BgColor:        color.RGBA{255, 255, 255, 255},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings and returns a human-readable error for the
// first violation found.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("setting %s %s (got %v)", e.Field(), formatValidationMessage(e), e.Value())
		}
		return err
	}
	if s.Title != "" && s.TitleFont == "" {
		return fmt.Errorf("setting TitleFont is required when Title is set")
	}
	return nil
}

// formatValidationMessage creates a human-readable message from a validator error.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// ParseHexColor parses a 6-digit hex RGB string, with or without a leading
// '#', into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("color must be 6 hex digits (e.g. ff6600), got %q", s)
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex in color: %q", s)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

// ParseResolution parses a "WIDTHxHEIGHT" string such as "1920x1080". The
// separator matches either case.
func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resolution must be WIDTHxHEIGHT (e.g. 1920x1080)")
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in resolution %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in resolution %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("resolution width and height must be positive")
	}
	return w, h, nil
}
