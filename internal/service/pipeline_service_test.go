package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStageDiscriminator(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		runToken string
		want     string
	}{
		{name: "first run keys on stage alone", stage: "summary", runToken: "", want: "summary"},
		{name: "forced run carries the token", stage: "summary", runToken: "a1b2c3d4", want: "summary:a1b2c3d4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stageDiscriminator(tt.stage, tt.runToken); got != tt.want {
				t.Errorf("stageDiscriminator() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStagePoolRunsEverySubmittedTask(t *testing.T) {
	pool := newStagePool(3, 8)

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
		})
	}
	wg.Wait()

	if got := atomic.LoadInt32(&ran); got != 20 {
		t.Errorf("ran = %d, want 20", got)
	}
}

func TestStagePoolSaturationBlocksSubmit(t *testing.T) {
	pool := newStagePool(1, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-release
	})
	<-started

	// The worker is parked, so this task occupies the single queue slot.
	pool.Submit(func() {})

	submitted := make(chan struct{})
	go func() {
		pool.Submit(func() {})
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit returned while the pool was saturated")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit never unblocked after the pool drained")
	}
}

func TestStagePoolSurvivesZeroWorkers(t *testing.T) {
	pool := newStagePool(0, 1)

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	<-done
}
