package vad

import (
	"encoding/binary"
	"math"
)

// DefaultThreshold is the RMS energy floor below which a chunk is treated
// as silence. Tuned against 16kHz PCM16 speech recorded at normal levels.
const DefaultThreshold = 0.015

// Detector classifies raw PCM16 chunks as speech or silence by RMS energy.
// It keeps no state: the same chunk always classifies the same way.
type Detector struct {
	threshold float64
}

func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// IsSpeech reports whether the chunk's energy clears the silence threshold.
func (d *Detector) IsSpeech(pcm []byte) bool {
	return Energy(pcm) >= d.threshold
}

// Threshold returns the configured silence floor.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Energy computes the RMS energy of little-endian PCM16 samples, normalized
// to [0, 1]. A trailing odd byte is ignored.
func Energy(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(sample) / math.MaxInt16
		sum += v * v
	}

	return math.Sqrt(sum / float64(n))
}
