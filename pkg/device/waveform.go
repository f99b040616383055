package device

import "math"

// Waveform is the time-dependent value of an independent source. The zero
// value is a plain DC source.
type Waveform struct {
	Kind SourceType

	// DC / SIN offset
	DCValue float64

	// SIN
	Amplitude float64
	Freq      float64
	Phase     float64 // degrees

	// PULSE
	V1, V2 float64
	Delay  float64
	Rise   float64
	Fall   float64
	Width  float64
	Period float64

	// PWL
	Times  []float64
	Values []float64
}

// At evaluates the waveform at time t. For OP and DC analyses t is zero.
func (w *Waveform) At(t float64) float64 {
	switch w.Kind {
	case SIN:
		phaseRad := w.Phase * math.Pi / 180.0
		return w.DCValue + w.Amplitude*math.Sin(2.0*math.Pi*w.Freq*t+phaseRad)
	case PULSE:
		return w.pulseAt(t)
	case PWL:
		return w.pwlAt(t)
	default:
		return w.DCValue
	}
}

func (w *Waveform) pulseAt(t float64) float64 {
	if t < w.Delay {
		return w.V1
	}

	t -= w.Delay
	if w.Period > 0 {
		t = math.Mod(t, w.Period)
	}

	if t < w.Rise {
		if w.Rise == 0 {
			return w.V2
		}
		return w.V1 + (w.V2-w.V1)*t/w.Rise
	}

	if t < w.Rise+w.Width {
		return w.V2
	}

	fallStart := w.Rise + w.Width
	if t < fallStart+w.Fall {
		if w.Fall == 0 {
			return w.V1
		}
		return w.V2 - (w.V2-w.V1)*(t-fallStart)/w.Fall
	}

	return w.V1
}

func (w *Waveform) pwlAt(t float64) float64 {
	if len(w.Times) == 0 {
		return w.DCValue
	}
	if t <= w.Times[0] {
		return w.Values[0]
	}

	lastIdx := len(w.Times) - 1
	if t >= w.Times[lastIdx] {
		return w.Values[lastIdx]
	}

	for i := 1; i < len(w.Times); i++ {
		if t <= w.Times[i] {
			t1, t2 := w.Times[i-1], w.Times[i]
			v1, v2 := w.Values[i-1], w.Values[i]
			return v1 + (v2-v1)*(t-t1)/(t2-t1)
		}
	}

	return w.Values[lastIdx]
}

// acSpec holds the small-signal phasor of an AC-tagged source.
type acSpec struct {
	present bool
	mag     float64
	phase   float64 // degrees
}

// phasor returns the rectangular form mag*e^{j*phase}, or zero when the
// source carries no AC spec.
func (a *acSpec) phasor() (float64, float64) {
	if !a.present {
		return 0, 0
	}
	phaseRad := a.phase * math.Pi / 180.0
	return a.mag * math.Cos(phaseRad), a.mag * math.Sin(phaseRad)
}
