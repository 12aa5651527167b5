package renderer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/linuxmatters/jivewave/internal/config"
)

func testSettings(mutate func(*config.Settings)) config.Settings {
	cfg := config.Default()
	cfg.Width = 320
	cfg.Height = 180
	cfg.Bars = 8
	cfg.SpectrumHeight = 100
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"zero width", func(s *config.Settings) { s.Width = 0 }},
		{"negative height", func(s *config.Settings) { s.Height = -1 }},
		{"zero bars", func(s *config.Settings) { s.Bars = 0 }},
		{"zero spectrum height", func(s *config.Settings) { s.SpectrumHeight = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testSettings(tt.mutate))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var rerr *RenderError
			if !errors.As(err, &rerr) {
				t.Errorf("error should be a *RenderError, got %T", err)
			}
		})
	}
}

func TestRenderDimensionsAlwaysMatchSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"defaults", nil},
		{"single bar", func(s *config.Settings) { s.Bars = 1 }},
		{"more bars than pixels", func(s *config.Settings) { s.Bars = 500 }},
		{"band taller than frame", func(s *config.Settings) { s.SpectrumHeight = 400 }},
		{"narrow strip", func(s *config.Settings) { s.SpectrumWidth = 100 }},
		{"raised band", func(s *config.Settings) { s.SpectrumYFromBottom = 50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings(tt.mutate)
			r, err := New(cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			spectrum := make([]float64, cfg.Bars)
			for i := range spectrum {
				spectrum[i] = 1.0
			}
			img, err := r.Render(spectrum, 1.0)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			defer r.Release(img)

			if img.Bounds().Dx() != cfg.Width || img.Bounds().Dy() != cfg.Height {
				t.Errorf("image is %dx%d, want %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), cfg.Width, cfg.Height)
			}
		})
	}
}

// A silent clip (globalMax 0) must render pure background: zero-height bars
// everywhere and no division by zero.
func TestRenderSilenceIsPureBackground(t *testing.T) {
	cfg := testSettings(nil)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	img, err := r.Render(make([]float64, cfg.Bars), 0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	defer r.Release(img)

	bg := cfg.BgColor
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if img.RGBAAt(x, y) != bg {
				t.Fatalf("pixel (%d, %d) = %v, want background %v", x, y, img.RGBAAt(x, y), bg)
			}
		}
	}
}

// A bar whose raw value equals the global maximum must render at full band
// height (the band minus its fixed padding), measured down its center
// column where corner rounding cannot interfere.
func TestRenderFullHeightBar(t *testing.T) {
	cfg := testSettings(nil)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	spectrum := make([]float64, cfg.Bars)
	spectrum[3] = 5.0 // equals globalMax below
	img, err := r.Render(spectrum, 5.0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	defer r.Release(img)

	x := r.startX + 3*(r.barWidth+barGap) + r.barWidth/2
	painted := 0
	for y := 0; y < cfg.Height; y++ {
		if img.RGBAAt(x, y) == cfg.BarColor {
			painted++
		}
	}

	want := cfg.SpectrumHeight - bandPadding
	if painted != want {
		t.Errorf("full-height bar paints %d pixels in its center column, want %d", painted, want)
	}

	// And the other bars stay at zero height.
	xOther := r.startX + r.barWidth/2
	for y := 0; y < cfg.Height; y++ {
		if img.RGBAAt(xOther, y) == cfg.BarColor {
			t.Fatalf("bar 0 painted at y=%d despite zero value", y)
		}
	}
}

// Rendering the same spectrum twice with the same settings must produce
// byte-identical images.
func TestRenderIsDeterministic(t *testing.T) {
	cfg := testSettings(nil)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	spectrum := []float64{0.1, 0.9, 0.4, 0.7, 0.2, 1.0, 0.05, 0.6}

	first, err := r.Render(spectrum, 1.0)
	if err != nil {
		t.Fatalf("first Render failed: %v", err)
	}
	snapshot := make([]byte, len(first.Pix))
	copy(snapshot, first.Pix)
	r.Release(first)

	second, err := r.Render(spectrum, 1.0)
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	defer r.Release(second)

	if !bytes.Equal(snapshot, second.Pix) {
		t.Error("re-rendering identical input produced different bytes")
	}
}

func TestRenderRejectsMismatchedSpectrum(t *testing.T) {
	r, err := New(testSettings(nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = r.Render(make([]float64, 3), 1.0)
	if err == nil {
		t.Fatal("expected error for mismatched spectrum length, got nil")
	}
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Errorf("error should be a *RenderError, got %T", err)
	}
}

func TestPointInRoundedRect(t *testing.T) {
	// Radius zero degenerates to a plain rectangle.
	if !pointInRoundedRect(10, 10, 0, 0, 20, 20, 0) {
		t.Error("interior point should be inside r=0 rect")
	}
	if !pointInRoundedRect(19, 19, 0, 0, 20, 20, 0) {
		t.Error("far corner pixel should be inside r=0 rect")
	}
	if pointInRoundedRect(20, 10, 0, 0, 20, 20, 0) {
		t.Error("x=20 should be outside a 20-wide rect at origin")
	}
	if pointInRoundedRect(5, 5, 10, 10, 20, 20, 0) {
		t.Error("point left of rect should be outside")
	}

	// With rounding, points just inside the corner arc stay in and the
	// extreme corner pixel falls out.
	const x0, y0, w, h, r = 10, 10, 20, 20, 4
	if !pointInRoundedRect(x0+w/2, y0+h/2, x0, y0, w, h, r) {
		t.Error("center should be inside")
	}
	if !pointInRoundedRect(x0+r, y0+r, x0, y0, w, h, r) {
		t.Error("corner circle center should be inside")
	}
	if pointInRoundedRect(x0, y0, x0, y0, w, h, r) {
		t.Error("extreme corner pixel should be shaved off by rounding")
	}
	if pointInRoundedRect(x0+w-1, y0+h-1, x0, y0, w, h, r) {
		t.Error("opposite extreme corner pixel should be shaved off by rounding")
	}
}
