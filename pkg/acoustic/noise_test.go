package acoustic

import (
	"math"
	"testing"
)

func TestAddNoiseHitsRequestedSNR(t *testing.T) {
	mixer := NewNoiseMixer(42)
	clean := tone(16000, 440, 16000)

	noisy, err := mixer.AddNoise(clean, SNRModerate)
	if err != nil {
		t.Fatalf("AddNoise() error = %v", err)
	}
	if len(noisy) != len(clean) {
		t.Fatalf("len = %d, want %d", len(noisy), len(clean))
	}

	// Recover the noise component and measure the achieved SNR.
	noisePower := 0.0
	for i := range clean {
		d := noisy[i] - clean[i]
		noisePower += d * d
	}
	noisePower /= float64(len(clean))
	signalPower := meanSquare(clean)

	gotSNR := 10 * math.Log10(signalPower/noisePower)
	if math.Abs(gotSNR-SNRModerate) > 1.0 {
		t.Errorf("achieved SNR = %.2fdB, want within 1dB of %.0fdB", gotSNR, SNRModerate)
	}
}

func TestAddNoiseLowerSNRMeansMoreNoise(t *testing.T) {
	clean := tone(16000, 440, 16000)

	noisePowerAt := func(snr float64) float64 {
		mixer := NewNoiseMixer(7)
		noisy, err := mixer.AddNoise(clean, snr)
		if err != nil {
			t.Fatalf("AddNoise() error = %v", err)
		}
		power := 0.0
		for i := range clean {
			d := noisy[i] - clean[i]
			power += d * d
		}
		return power
	}

	if noisePowerAt(SNRNoisy) <= noisePowerAt(SNRQuiet) {
		t.Error("10dB SNR should carry more noise energy than 20dB SNR")
	}
}

func TestAddNoiseClipGuard(t *testing.T) {
	mixer := NewNoiseMixer(1)
	clean := make([]float64, 8000)
	for i := range clean {
		clean[i] = 0.94 // near full scale already
	}

	noisy, err := mixer.AddNoise(clean, SNRNoisy)
	if err != nil {
		t.Fatalf("AddNoise() error = %v", err)
	}
	for i, s := range noisy {
		if math.Abs(s) > 0.95+1e-9 {
			t.Fatalf("sample %d = %v exceeds the clip guard", i, s)
		}
	}
}

func TestAddNoiseIsReproducibleForSameSeed(t *testing.T) {
	clean := tone(1600, 440, 16000)

	a, err := NewNoiseMixer(99).AddNoise(clean, SNRModerate)
	if err != nil {
		t.Fatalf("AddNoise() error = %v", err)
	}
	b, err := NewNoiseMixer(99).AddNoise(clean, SNRModerate)
	if err != nil {
		t.Fatalf("AddNoise() error = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed should produce identical noise")
		}
	}
}
