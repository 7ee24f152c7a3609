package transcript

import (
	"math"
	"testing"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/stt"

	"github.com/google/uuid"
)

func interim(text string, startMs, endMs int64) *stt.Result {
	return &stt.Result{Text: text, Kind: stt.KindInterim, Confidence: 0.5, StartMs: startMs, EndMs: endMs}
}

func final(text string, startMs, endMs int64, conf float64) *stt.Result {
	return &stt.Result{Text: text, Kind: stt.KindFinal, Confidence: conf, StartMs: startMs, EndMs: endMs}
}

func TestReconcileInterimUpsert(t *testing.T) {
	r := NewReconciler(uuid.New(), 1000)

	out := r.Reconcile(interim("hel", 0, 400))
	if out.Replaced {
		t.Error("first interim reported Replaced")
	}
	if out.Segment.Kind != entity.SegmentInterim {
		t.Errorf("Kind = %s, want interim", out.Segment.Kind)
	}

	// Same window bucket: last write wins.
	out = r.Reconcile(interim("hello", 80, 600))
	if !out.Replaced {
		t.Error("second interim for same window did not replace")
	}
	if got := r.Interims(); len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("Interims() = %v, want single 'hello'", got)
	}

	// Distant window: separate hypothesis.
	r.Reconcile(interim("later words", 5000, 5600))
	if got := r.Interims(); len(got) != 2 {
		t.Fatalf("Interims() count = %d, want 2", len(got))
	}
}

func TestReconcileFinalRetiresOverlappingInterim(t *testing.T) {
	r := NewReconciler(uuid.New(), 1000)

	r.Reconcile(interim("hello", 0, 900))
	out := r.Reconcile(final("hello world", 0, 1500, 0.9))

	if out.Duplicate {
		t.Fatal("final flagged duplicate")
	}
	if len(out.Retired) != 1 || out.Retired[0].Text != "hello" {
		t.Fatalf("Retired = %v, want the 'hello' interim", out.Retired)
	}
	if len(r.Interims()) != 0 {
		t.Error("interim survived an overlapping final")
	}

	finals := r.Finals()
	if len(finals) != 1 || finals[0].Text != "hello world" {
		t.Fatalf("Finals() = %v, want ['hello world']", finals)
	}
}

func TestReconcileFinalDuplicateDiscarded(t *testing.T) {
	r := NewReconciler(uuid.New(), 1000)

	first := r.Reconcile(final("hello world", 0, 1500, 0.9))
	if first.Duplicate {
		t.Fatal("first final flagged duplicate")
	}

	// Identical re-delivery: same fingerprint.
	dup := r.Reconcile(final("Hello, world!", 50, 1480, 0.9))
	if !dup.Duplicate {
		t.Error("re-delivered final not flagged duplicate")
	}
	if dup.Segment != nil {
		t.Error("duplicate outcome carries a segment")
	}

	// Different text but >50% window overlap: still the same utterance.
	overlapping := r.Reconcile(final("hello word", 200, 1400, 0.8))
	if !overlapping.Duplicate {
		t.Error("mostly-overlapping final not flagged duplicate")
	}

	if got := r.Aggregates().SegmentCount; got != 1 {
		t.Errorf("SegmentCount = %d, want 1", got)
	}
}

func TestReconcileFinalOrderingAndOutOfOrder(t *testing.T) {
	r := NewReconciler(uuid.New(), 1000)

	r.Reconcile(final("second utterance", 5000, 7000, 0.9))
	out := r.Reconcile(final("first utterance", 0, 2000, 0.8))

	if !out.Segment.OutOfOrder {
		t.Error("late-arriving earlier segment not flagged out of order")
	}

	finals := r.Finals()
	if len(finals) != 2 {
		t.Fatalf("Finals() count = %d, want 2", len(finals))
	}
	if finals[0].Text != "first utterance" || finals[1].Text != "second utterance" {
		t.Errorf("Finals() order = [%s, %s], want StartMs order", finals[0].Text, finals[1].Text)
	}

	// Pairwise non-overlap holds after insertion.
	for i := 1; i < len(finals); i++ {
		if overlapRatio(finals[i-1].StartMs, finals[i-1].EndMs, finals[i].StartMs, finals[i].EndMs) > 0.5 {
			t.Error("committed finals overlap beyond the duplicate threshold")
		}
	}
}

func TestReconcilerAggregates(t *testing.T) {
	r := NewReconciler(uuid.New(), 1000)

	r.Reconcile(final("one", 0, 2000, 1.0))     // weight 2000
	r.Reconcile(final("two", 3000, 4000, 0.4))  // weight 1000

	agg := r.Aggregates()
	if agg.SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", agg.SegmentCount)
	}
	if agg.AudioDurationMs != 4000 {
		t.Errorf("AudioDurationMs = %d, want 4000", agg.AudioDurationMs)
	}

	want := (1.0*2000 + 0.4*1000) / 3000
	if math.Abs(agg.AvgConfidence-want) > 1e-9 {
		t.Errorf("AvgConfidence = %f, want %f", agg.AvgConfidence, want)
	}

	// Interims never move the aggregates.
	r.Reconcile(interim("three", 6000, 6500))
	if got := r.Aggregates(); got != agg {
		t.Errorf("Aggregates() after interim = %+v, want unchanged %+v", got, agg)
	}
}
