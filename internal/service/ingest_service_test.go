package service

import "testing"

func TestPcmDurationMs(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		want    int64
	}{
		{name: "one second", byteLen: 32000, want: 1000},
		{name: "hundred millis", byteLen: 3200, want: 100},
		{name: "empty", byteLen: 0, want: 0},
		{name: "sub millisecond rounds down", byteLen: 31, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pcmDurationMs(tt.byteLen); got != tt.want {
				t.Errorf("pcmDurationMs(%d) = %d, want %d", tt.byteLen, got, tt.want)
			}
		})
	}
}
