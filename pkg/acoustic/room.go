// Package acoustic degrades clean speech the way an aged care private
// room does: distance attenuation, early reflections and background
// noise. The degraded audio is what the voice pipeline is validated
// against.
package acoustic

import (
	"fmt"
	"math"
)

const speedOfSound = 343.0 // m/s at room temperature

// Material describes a surface by its absorption coefficient.
// Higher absorption means less echo.
type Material struct {
	Absorption float64
}

// Reflection returns the amplitude reflection coefficient.
func (m Material) Reflection() float64 {
	return math.Sqrt(1 - m.Absorption)
}

// Position is a point in the room, meters from the origin corner.
type Position struct {
	X, Y, Z float64
}

func (p Position) distanceTo(q Position) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// RoomSimulator models the acoustics of a shoebox room with an
// image-source method: the received signal is the sum of the direct
// path and wall reflections up to MaxOrder bounces, each delayed by
// travel time and attenuated by spreading loss and surface absorption.
type RoomSimulator struct {
	// Width, length, height in meters.
	Dimensions [3]float64

	Walls   Material // east/west/north/south
	Floor   Material
	Ceiling Material

	// MaxOrder bounds the number of reflections per image source.
	// Three captures the main echoes of a small room.
	MaxOrder int

	// Resident is the sound source position (seated height).
	Resident Position
}

// NewPrivateRoom models a typical 4m x 5m x 3m aged care private room:
// drywall walls, carpet floor, acoustic ceiling tiles, resident seated
// near the middle of the room.
func NewPrivateRoom() *RoomSimulator {
	return &RoomSimulator{
		Dimensions: [3]float64{4.0, 5.0, 3.0},
		Walls:      Material{Absorption: 0.05},
		Floor:      Material{Absorption: 0.30},
		Ceiling:    Material{Absorption: 0.70},
		MaxOrder:   3,
		Resident:   Position{X: 2.0, Y: 1.2, Z: 0.5},
	}
}

// MicPosition returns the robot microphone position for a supported
// conversation distance: 1m is a close private conversation, 3m is the
// robot near the doorway.
func (r *RoomSimulator) MicPosition(distanceMeters float64) (Position, error) {
	switch distanceMeters {
	case 1.0:
		return Position{X: 2.0, Y: 2.2, Z: 1.2}, nil
	case 3.0:
		return Position{X: 2.0, Y: 4.2, Z: 1.2}, nil
	default:
		return Position{}, fmt.Errorf("unsupported conversation distance %.1fm: only 1m and 3m are modeled", distanceMeters)
	}
}

// Simulate returns the clean signal as heard by the robot microphone at
// the given distance from the resident. The output is peak-normalized
// to 0.8 to prevent clipping downstream.
func (r *RoomSimulator) Simulate(clean []float64, distanceMeters float64, sampleRate int) ([]float64, error) {
	if len(clean) == 0 {
		return nil, fmt.Errorf("empty input signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	mic, err := r.MicPosition(distanceMeters)
	if err != nil {
		return nil, err
	}

	type image struct {
		delay int
		gain  float64
	}
	var images []image
	maxDelay := 0

	wallRefl := r.Walls.Reflection()
	// Floor and ceiling alternate along vertical bounces; the geometric
	// mean per bounce is close enough for a validation harness.
	vertRefl := math.Sqrt(r.Floor.Reflection() * r.Ceiling.Reflection())

	for nx := -r.MaxOrder; nx <= r.MaxOrder; nx++ {
		for ny := -r.MaxOrder; ny <= r.MaxOrder; ny++ {
			for nz := -r.MaxOrder; nz <= r.MaxOrder; nz++ {
				order := abs(nx) + abs(ny) + abs(nz)
				if order > r.MaxOrder {
					continue
				}

				img := Position{
					X: mirror(r.Resident.X, r.Dimensions[0], nx),
					Y: mirror(r.Resident.Y, r.Dimensions[1], ny),
					Z: mirror(r.Resident.Z, r.Dimensions[2], nz),
				}

				dist := img.distanceTo(mic)
				if dist < 0.1 {
					dist = 0.1
				}

				refl := math.Pow(wallRefl, float64(abs(nx)+abs(ny))) * math.Pow(vertRefl, float64(abs(nz)))
				delay := int(math.Round(dist / speedOfSound * float64(sampleRate)))

				images = append(images, image{delay: delay, gain: refl / dist})
				if delay > maxDelay {
					maxDelay = delay
				}
			}
		}
	}

	out := make([]float64, len(clean)+maxDelay)
	for _, img := range images {
		for i, s := range clean {
			out[i+img.delay] += s * img.gain
		}
	}

	normalize(out, 0.8)
	return out, nil
}

// mirror folds a source coordinate across the walls of an axis n times.
// Even image indices keep the source side, odd ones reflect it.
func mirror(coord, size float64, n int) float64 {
	if n%2 == 0 {
		return float64(n)*size + coord
	}
	return float64(n)*size + (size - coord)
}

func normalize(signal []float64, peak float64) {
	maxVal := 0.0
	for _, s := range signal {
		if a := math.Abs(s); a > maxVal {
			maxVal = a
		}
	}
	if maxVal == 0 {
		return
	}
	scale := peak / maxVal
	for i := range signal {
		signal[i] *= scale
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
