package analyzer

import "math"

// binMapping assigns FFT bins to spectrum bars on a logarithmic frequency
// scale, so low frequencies get proportionally more bars than high ones.
//
// Bar k covers frequencies [fMin*(fMax/fMin)^(k/bars), fMin*(fMax/fMin)^((k+1)/bars))
// where fMin is one FFT bin width (the floor that keeps the log finite) and
// fMax is the Nyquist frequency. The table depends only on sample rate, FFT
// size and bar count, so it is computed once per clip and shared read-only by
// all analysis workers.
type binMapping struct {
	bars     int
	barOfBin []int // per FFT bin; -1 for bins below the frequency floor
	fillFrom []int // per bar: source bar for bars with no bins of their own
}

func newBinMapping(sampleRate, fftSize, bars int) *binMapping {
	half := fftSize/2 + 1
	fMin := float64(sampleRate) / float64(fftSize)
	fMax := float64(sampleRate) / 2
	logRatio := math.Log(fMax / fMin)

	m := &binMapping{
		bars:     bars,
		barOfBin: make([]int, half),
		fillFrom: make([]int, bars),
	}
	populated := make([]bool, bars)

	for bin := 0; bin < half; bin++ {
		f := float64(bin) * float64(sampleRate) / float64(fftSize)
		if f < fMin {
			// Only the DC bin sits below the log floor.
			m.barOfBin[bin] = -1
			continue
		}
		bar := 0
		if logRatio > 0 {
			bar = int(math.Log(f/fMin) / logRatio * float64(bars))
		}
		if bar >= bars {
			// The Nyquist bin lands exactly on the top boundary.
			bar = bars - 1
		}
		m.barOfBin[bin] = bar
		populated[bar] = true
	}

	// Bars whose frequency range is narrower than one FFT bin get no bins of
	// their own. They borrow the nearest populated bar so no bar renders as
	// a permanent gap.
	for bar := range m.fillFrom {
		m.fillFrom[bar] = nearestPopulated(populated, bar)
	}

	return m
}

func nearestPopulated(populated []bool, bar int) int {
	if populated[bar] {
		return bar
	}
	for d := 1; d < len(populated); d++ {
		if bar-d >= 0 && populated[bar-d] {
			return bar - d
		}
		if bar+d < len(populated) && populated[bar+d] {
			return bar + d
		}
	}
	return bar
}

// aggregate reduces per-bin magnitudes to per-bar values. Aggregation within
// a bar is the maximum of its member bin magnitudes; max keeps narrow peaks
// visible where a sum would let wide bars dwarf them.
func (m *binMapping) aggregate(magnitudes []float64) []float64 {
	raw := make([]float64, m.bars)
	for bin, bar := range m.barOfBin {
		if bar < 0 || bin >= len(magnitudes) {
			continue
		}
		if magnitudes[bin] > raw[bar] {
			raw[bar] = magnitudes[bin]
		}
	}

	out := make([]float64, m.bars)
	for bar := range out {
		out[bar] = raw[m.fillFrom[bar]]
	}
	return out
}
