package vad

import (
	"encoding/binary"
	"math"
	"testing"
)

// pcmTone produces n PCM16 samples of a sine wave at the given amplitude (0..1).
func pcmTone(n int, amplitude float64) []byte {
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amplitude * math.Sin(2*math.Pi*float64(i)/32)
		sample := int16(v * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func TestEnergy(t *testing.T) {
	tests := []struct {
		name string
		pcm  []byte
		min  float64
		max  float64
	}{
		{name: "empty chunk", pcm: nil, min: 0, max: 0},
		{name: "single odd byte ignored", pcm: []byte{0x7f}, min: 0, max: 0},
		{name: "digital silence", pcm: make([]byte, 640), min: 0, max: 0},
		{name: "quiet tone", pcm: pcmTone(320, 0.01), min: 0.005, max: 0.01},
		{name: "speech level tone", pcm: pcmTone(320, 0.5), min: 0.3, max: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Energy(tt.pcm)
			if got < tt.min || got > tt.max {
				t.Errorf("Energy() = %f, want within [%f, %f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestDetectorIsSpeech(t *testing.T) {
	d := NewDetector(DefaultThreshold)

	if d.IsSpeech(make([]byte, 640)) {
		t.Error("IsSpeech(silence) = true, want false")
	}
	if d.IsSpeech(pcmTone(320, 0.005)) {
		t.Error("IsSpeech(below threshold) = true, want false")
	}
	if !d.IsSpeech(pcmTone(320, 0.5)) {
		t.Error("IsSpeech(speech level) = false, want true")
	}
}

func TestNewDetectorDefaultsThreshold(t *testing.T) {
	d := NewDetector(0)
	if d.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %f, want %f", d.Threshold(), DefaultThreshold)
	}

	d = NewDetector(0.2)
	if d.Threshold() != 0.2 {
		t.Errorf("Threshold() = %f, want 0.2", d.Threshold())
	}
}
