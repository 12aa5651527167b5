// Package renderer rasterizes magnitude spectra into video frames: a
// background plus one rounded bar per spectrum entry, drawn into the
// spectrum band at the bottom of the frame.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/linuxmatters/jivewave/internal/config"
)

// RenderError reports invalid output geometry. It stems from fixed
// configuration rather than data, so it aborts the whole run.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("frame render: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// barGap is the horizontal space between adjacent bars in pixels.
const barGap = 1

// bandPadding keeps a little air between a full-height bar and the band
// edges.
const bandPadding = 4

// Renderer draws one frame per call. The background (solid color or scaled
// image, with the optional title baked in) is prepared once; Render only
// copies it and draws bars on top, so identical input always produces a
// byte-identical image. Safe for concurrent use: all shared state is
// read-only after New.
type Renderer struct {
	cfg config.Settings

	template *image.RGBA
	pool     sync.Pool

	// Precomputed bar geometry.
	barWidth     int
	radius       int
	startX       int
	centerY      int
	usableHeight int
}

// New validates the output geometry and prepares the background template.
func New(cfg config.Settings) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &RenderError{Err: fmt.Errorf("image dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)}
	}
	if cfg.Bars <= 0 {
		return nil, &RenderError{Err: fmt.Errorf("bar count must be positive, got %d", cfg.Bars)}
	}
	if cfg.SpectrumHeight <= 0 {
		return nil, &RenderError{Err: fmt.Errorf("spectrum height must be positive, got %d", cfg.SpectrumHeight)}
	}

	template, err := buildTemplate(cfg)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	totalGaps := (cfg.Bars - 1) * barGap
	stripWidth := cfg.SpectrumWidth
	if stripWidth <= 0 || stripWidth > cfg.Width {
		stripWidth = cfg.Width
	}
	barWidth := 0
	if stripWidth > totalGaps {
		barWidth = (stripWidth - totalGaps) / cfg.Bars
	}
	radius := barWidth / 2
	if radius < 1 {
		radius = 1
	}
	if radius > 4 {
		radius = 4
	}

	usable := cfg.SpectrumHeight - bandPadding
	if usable < 0 {
		usable = 0
	}

	r := &Renderer{
		cfg:          cfg,
		template:     template,
		barWidth:     barWidth,
		radius:       radius,
		startX:       (cfg.Width - (cfg.Bars*barWidth + totalGaps)) / 2,
		centerY:      cfg.Height - cfg.SpectrumYFromBottom - cfg.SpectrumHeight/2,
		usableHeight: usable,
	}
	r.pool.New = func() any {
		return image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	}
	return r, nil
}

// Render draws one frame for the given spectrum. Bar values are normalized
// against globalMax, clamped to [0, 1]; a globalMax of zero (silent clip)
// renders every bar at zero height. The returned image belongs to the caller
// until handed back via Release.
func (r *Renderer) Render(spectrum []float64, globalMax float64) (*image.RGBA, error) {
	if len(spectrum) != r.cfg.Bars {
		return nil, &RenderError{Err: fmt.Errorf("spectrum has %d bars, renderer configured for %d", len(spectrum), r.cfg.Bars)}
	}

	img := r.pool.Get().(*image.RGBA)
	copy(img.Pix, r.template.Pix)

	if r.barWidth <= 0 {
		// Strip too narrow for even 1px bars; the frame is just background.
		return img, nil
	}

	for i, v := range spectrum {
		norm := 0.0
		if globalMax > 0 {
			norm = v / globalMax
		}
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}

		barHeight := int(norm * float64(r.usableHeight))
		if barHeight == 0 {
			continue
		}

		x0 := r.startX + i*(r.barWidth+barGap)
		yTop := r.centerY - barHeight/2
		r.drawRoundedBar(img, x0, yTop, r.barWidth, barHeight)
	}

	return img, nil
}

// Release returns a frame buffer to the pool once the sink is done with it.
func (r *Renderer) Release(img *image.RGBA) {
	if img != nil {
		r.pool.Put(img)
	}
}

// drawRoundedBar fills one rounded rectangle, clipped to the frame.
func (r *Renderer) drawRoundedBar(img *image.RGBA, x0, y0, w, h int) {
	radius := r.radius
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}
	c := r.cfg.BarColor

	for y := y0; y < y0+h; y++ {
		if y < 0 || y >= r.cfg.Height {
			continue
		}
		for x := x0; x < x0+w; x++ {
			if x < 0 || x >= r.cfg.Width {
				continue
			}
			if pointInRoundedRect(x, y, x0, y0, w, h, radius) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// pointInRoundedRect reports whether the pixel (px, py) belongs to a
// rectangle with quarter-circle corners of the given radius. A pixel is in
// if it lies in the core cross (full-width middle band or full-height center
// band) or within radius of one of the four corner circle centers.
func pointInRoundedRect(px, py, x0, y0, w, h, r int) bool {
	x1 := x0 + w
	y1 := y0 + h
	if r <= 0 {
		return px >= x0 && px < x1 && py >= y0 && py < y1
	}

	inCenter := px >= x0+r && px < x1-r && py >= y0 && py < y1
	inMiddle := px >= x0 && px < x1 && py >= y0+r && py < y1-r
	if inCenter || inMiddle {
		return true
	}

	corners := [4][2]int{
		{x0 + r, y0 + r},
		{x1 - r - 1, y0 + r},
		{x0 + r, y1 - r - 1},
		{x1 - r - 1, y1 - r - 1},
	}
	for _, c := range corners {
		dx := px - c[0]
		dy := py - c[1]
		if dx*dx+dy*dy <= r*r {
			return true
		}
	}
	return false
}

// buildTemplate prepares the per-run background: a solid fill or a scaled
// background image, with the optional title text drawn once on top.
func buildTemplate(cfg config.Settings) (*image.RGBA, error) {
	var template *image.RGBA
	if cfg.BgImage != "" {
		bg, err := LoadBackgroundImage(cfg.BgImage, cfg.Width, cfg.Height)
		if err != nil {
			return nil, fmt.Errorf("background image: %w", err)
		}
		template = bg
	} else {
		template = image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		draw.Draw(template, template.Bounds(), image.NewUniform(cfg.BgColor), image.Point{}, draw.Src)
	}

	if cfg.Title != "" {
		face, err := LoadFont(cfg.TitleFont, 48)
		if err != nil {
			return nil, fmt.Errorf("title font: %w", err)
		}
		DrawCenterText(template, face, cfg.Title, titleColor(cfg))
	}

	return template, nil
}

// titleColor picks the bar color for the title so the overlay matches the
// bars without another flag.
func titleColor(cfg config.Settings) color.RGBA {
	return cfg.BarColor
}
