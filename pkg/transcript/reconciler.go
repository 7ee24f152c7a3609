package transcript

import (
	"sort"
	"sync"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/stt"

	"github.com/google/uuid"
)

// duplicateOverlap is the window-overlap fraction beyond which two FINAL
// results are considered the same utterance delivered twice.
const duplicateOverlap = 0.5

// Aggregates are the session-level transcript statistics maintained by the
// reconciler. AvgConfidence is a duration-weighted mean over FINAL segments.
type Aggregates struct {
	SegmentCount    int
	AvgConfidence   float64
	AudioDurationMs int64
}

// Outcome describes what one provider result did to the live view.
type Outcome struct {
	// Segment is the resulting live segment. Nil when a FINAL was discarded
	// as a duplicate.
	Segment *entity.TranscriptSegment

	// Duplicate marks a FINAL dropped by the re-delivery guard.
	Duplicate bool

	// Replaced marks an INTERIM that overwrote an earlier hypothesis for the
	// same window.
	Replaced bool

	// Retired lists the INTERIM segments removed because this FINAL covers
	// their window.
	Retired []*entity.TranscriptSegment

	Aggregates Aggregates
}

// Reconciler merges interim and final provider results for one session into
// an ordered, deduplicated segment sequence. The ingest worker owns all
// writes; readers may snapshot the live view concurrently.
type Reconciler struct {
	sessionID uuid.UUID
	windowMs  int64

	mu sync.RWMutex

	// interim hypotheses keyed by their rounded start bucket
	interims map[int64]*entity.TranscriptSegment

	// committed FINALs ordered by StartMs
	finals []*entity.TranscriptSegment

	// StartMs of the most recently committed FINAL, for out-of-order flagging
	lastFinalStartMs int64

	weightedConf float64
	confWeight   float64
	maxEndMs     int64
}

func NewReconciler(sessionID uuid.UUID, windowMs int64) *Reconciler {
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}
	return &Reconciler{
		sessionID:        sessionID,
		windowMs:         windowMs,
		interims:         make(map[int64]*entity.TranscriptSegment),
		lastFinalStartMs: -1,
	}
}

// Reconcile folds one provider result into the live view.
func (r *Reconciler) Reconcile(res *stt.Result) *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	seg := &entity.TranscriptSegment{
		Id:          uuid.New(),
		SessionId:   r.sessionID,
		Text:        res.Text,
		StartMs:     res.StartMs,
		EndMs:       res.EndMs,
		Confidence:  res.Confidence,
		Fingerprint: Fingerprint(res.Text, res.StartMs, res.EndMs, r.windowMs),
		CreatedAt:   time.Now(),
	}

	if res.Kind == stt.KindInterim {
		seg.Kind = entity.SegmentInterim
		return r.reconcileInterim(seg)
	}

	seg.Kind = entity.SegmentFinal
	return r.reconcileFinal(seg)
}

// reconcileInterim upsert-replaces the hypothesis for the segment's window.
// Last write wins.
func (r *Reconciler) reconcileInterim(seg *entity.TranscriptSegment) *Outcome {
	bucket := roundToBucket(seg.StartMs, r.windowMs)
	_, replaced := r.interims[bucket]
	r.interims[bucket] = seg

	return &Outcome{
		Segment:    seg,
		Replaced:   replaced,
		Aggregates: r.aggregates(),
	}
}

func (r *Reconciler) reconcileFinal(seg *entity.TranscriptSegment) *Outcome {
	// Re-delivery guard: same fingerprint, or mostly the same window as a
	// committed FINAL.
	for _, f := range r.finals {
		if f.Fingerprint == seg.Fingerprint ||
			overlapRatio(f.StartMs, f.EndMs, seg.StartMs, seg.EndMs) > duplicateOverlap {
			return &Outcome{Duplicate: true, Aggregates: r.aggregates()}
		}
	}

	if r.lastFinalStartMs >= 0 && seg.StartMs < r.lastFinalStartMs {
		seg.OutOfOrder = true
	}
	r.lastFinalStartMs = seg.StartMs

	// Insert keeping StartMs order.
	idx := sort.Search(len(r.finals), func(i int) bool {
		return r.finals[i].StartMs > seg.StartMs
	})
	r.finals = append(r.finals, nil)
	copy(r.finals[idx+1:], r.finals[idx:])
	r.finals[idx] = seg

	retired := r.retireInterims(seg)

	dur := seg.DurationMs()
	r.weightedConf += seg.Confidence * float64(dur)
	r.confWeight += float64(dur)
	if seg.EndMs > r.maxEndMs {
		r.maxEndMs = seg.EndMs
	}

	return &Outcome{
		Segment:    seg,
		Retired:    retired,
		Aggregates: r.aggregates(),
	}
}

// retireInterims drops every interim hypothesis whose window the committed
// FINAL touches.
func (r *Reconciler) retireInterims(final *entity.TranscriptSegment) []*entity.TranscriptSegment {
	var retired []*entity.TranscriptSegment
	for bucket, interim := range r.interims {
		if interim.Fingerprint == final.Fingerprint ||
			overlapRatio(interim.StartMs, interim.EndMs, final.StartMs, final.EndMs) > 0 {
			retired = append(retired, interim)
			delete(r.interims, bucket)
		}
	}
	return retired
}

func (r *Reconciler) aggregates() Aggregates {
	agg := Aggregates{
		SegmentCount:    len(r.finals),
		AudioDurationMs: r.maxEndMs,
	}
	if r.confWeight > 0 {
		agg.AvgConfidence = r.weightedConf / r.confWeight
	}
	return agg
}

// Aggregates returns the current session-level transcript statistics.
func (r *Reconciler) Aggregates() Aggregates {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aggregates()
}

// Finals returns the committed segments in StartMs order.
func (r *Reconciler) Finals() []*entity.TranscriptSegment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.TranscriptSegment, len(r.finals))
	copy(out, r.finals)
	return out
}

// Interims returns the live hypotheses in StartMs order.
func (r *Reconciler) Interims() []*entity.TranscriptSegment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.TranscriptSegment, 0, len(r.interims))
	for _, seg := range r.interims {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out
}
