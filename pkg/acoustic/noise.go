package acoustic

import (
	"fmt"
	"math"
	"math/rand"
)

// Typical facility noise levels, chosen from aged care acoustics
// surveys: 10dB is a TV on in the room, 15dB a typical private room,
// 20dB optimal quiet conditions.
const (
	SNRNoisy    = 10.0
	SNRModerate = 15.0
	SNRQuiet    = 20.0
)

// NoiseMixer adds facility background noise (TV, hallway activity,
// equipment) to clean speech at a configured signal-to-noise ratio.
// Pink noise approximates indoor ambience better than white noise.
type NoiseMixer struct {
	rng *rand.Rand
}

// NewNoiseMixer creates a mixer with a seeded generator so degraded
// test audio is reproducible across runs.
func NewNoiseMixer(seed int64) *NoiseMixer {
	return &NoiseMixer{rng: rand.New(rand.NewSource(seed))}
}

// AddNoise mixes pink noise into the clean signal at the given SNR in
// dB. Lower SNR means more noise. The result is clip-guarded at 0.95.
func (m *NoiseMixer) AddNoise(clean []float64, snrDB float64) ([]float64, error) {
	if len(clean) == 0 {
		return nil, fmt.Errorf("empty input signal")
	}

	noise := m.pinkNoise(len(clean))

	signalPower := meanSquare(clean)
	noisePower := meanSquare(noise)
	if noisePower == 0 {
		return append([]float64(nil), clean...), nil
	}

	// SNR(dB) = 10 * log10(signalPower / noisePower)
	snrLinear := math.Pow(10, snrDB/10)
	scaling := math.Sqrt(signalPower / (snrLinear * noisePower))

	out := make([]float64, len(clean))
	for i := range clean {
		out[i] = clean[i] + scaling*noise[i]
	}

	// Guard against clipping without touching already-quiet signals.
	maxVal := 0.0
	for _, s := range out {
		if a := math.Abs(s); a > maxVal {
			maxVal = a
		}
	}
	if maxVal > 0.95 {
		scale := 0.95 / maxVal
		for i := range out {
			out[i] *= scale
		}
	}

	return out, nil
}

// pinkNoise approximates 1/f noise by low-pass filtering white noise
// with a one-pole filter, then normalizing to unit peak.
func (m *NoiseMixer) pinkNoise(length int) []float64 {
	pink := make([]float64, length)
	prev := m.rng.NormFloat64()
	pink[0] = prev

	for i := 1; i < length; i++ {
		prev = 0.99*prev + 0.01*m.rng.NormFloat64()
		pink[i] = prev
	}

	maxVal := 0.0
	for _, s := range pink {
		if a := math.Abs(s); a > maxVal {
			maxVal = a
		}
	}
	if maxVal > 0 {
		for i := range pink {
			pink[i] /= maxVal
		}
	}
	return pink
}

func meanSquare(signal []float64) float64 {
	sum := 0.0
	for _, s := range signal {
		sum += s * s
	}
	return sum / float64(len(signal))
}
