package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"
	"github.com/capitalrow/MinaProd-sub007/pkg/transcript"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

// Deterministic ids so reseeding is a no-op.
var (
	demoUserID    = uuid.MustParse("7f4cf2a8-10c5-4c3f-9d19-27a0c2b61c11")
	demoSessionID = uuid.MustParse("3de7a9a2-54b8-4f0e-a9f3-8c3de25c9b42")
	demoTraceID   = uuid.MustParse("9b1b6c0e-88a1-49a9-b13e-6a4c0f3f2d77")
)

type demoSegment struct {
	text       string
	startMs    int64
	endMs      int64
	confidence float64
}

var demoSegments = []demoSegment{
	{"good morning everyone, let's get started with the standup", 0, 4200, 0.94},
	{"yesterday I finished the ingest retries and opened the review", 4200, 9100, 0.91},
	{"today I'm picking up the reconnect handling, no blockers", 9100, 13800, 0.89},
}

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding demo recording session...")

	var existing model.RecordingSession
	if err := db.Where("id = ?", demoSessionID).First(&existing).Error; err == nil {
		log.Printf("Session '%s' already exists, skipping...", demoSessionID)
		return
	}

	now := time.Now()
	startedAt := now.Add(-10 * time.Minute)
	finalizedAt := startedAt.Add(14 * time.Second)
	completedAt := finalizedAt.Add(6 * time.Second)

	var totalConfidence float64
	var durationMs int64
	for _, seg := range demoSegments {
		totalConfidence += seg.confidence
		if seg.endMs > durationMs {
			durationMs = seg.endMs
		}
	}

	session := model.RecordingSession{
		Id:              demoSessionID,
		TraceId:         demoTraceID,
		UserId:          demoUserID,
		State:           string(entity.SessionCompleted),
		StopReason:      "client_stop",
		SegmentCount:    len(demoSegments),
		AudioDurationMs: durationMs,
		AvgConfidence:   totalConfidence / float64(len(demoSegments)),
		StartedAt:       &startedAt,
		FinalizedAt:     &finalizedAt,
		CompletedAt:     &completedAt,
	}
	if err := db.Create(&session).Error; err != nil {
		log.Fatal("Error: Failed to create session:", err)
	}

	seq := int64(0)
	appendEvent := func(eventType, discriminator string, payload map[string]interface{}) {
		seq++
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatal("Error: Failed to encode payload:", err)
		}
		entry := model.LedgerEntry{
			SessionId: demoSessionID,
			TraceId:   demoTraceID,
			EventType: eventType,
			Sequence:  seq,
			DedupeKey: entity.DedupeKeyFor(eventType, discriminator),
			Payload:   datatypes.JSON(raw),
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Fatalf("Error: Failed to create ledger entry %d: %v", seq, err)
		}
	}

	appendEvent(entity.EventRecordStart, "", map[string]interface{}{
		"state": string(entity.SessionActive), "reason": "first_chunk",
	})

	for _, seg := range demoSegments {
		segmentID := uuid.New()
		fp := transcript.Fingerprint(seg.text, seg.startMs, seg.endMs, 0)

		row := model.TranscriptSegment{
			Id:          segmentID,
			SessionId:   demoSessionID,
			Kind:        string(entity.SegmentFinal),
			Text:        seg.text,
			StartMs:     seg.startMs,
			EndMs:       seg.endMs,
			Confidence:  seg.confidence,
			Fingerprint: fp,
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatal("Error: Failed to create segment:", err)
		}

		appendEvent(entity.EventSegmentFinal, fp, map[string]interface{}{
			"segment_id": segmentID,
			"kind":       string(entity.SegmentFinal),
			"text":       seg.text,
			"start_ms":   seg.startMs,
			"end_ms":     seg.endMs,
			"confidence": seg.confidence,
		})
	}

	appendEvent(entity.EventRecordStop, "", map[string]interface{}{
		"state": string(entity.SessionFinalizing), "reason": "client_stop",
	})
	appendEvent(entity.EventSessionFinalized, "", map[string]interface{}{
		"state": string(entity.SessionFinalizing),
	})

	stagePayloads := map[string]map[string]interface{}{
		entity.StageRefinement: {
			"text": "Good morning everyone, let's get started with the standup. Yesterday I finished the ingest retries and opened the review. Today I'm picking up the reconnect handling; no blockers.",
		},
		entity.StageAnalytics: {
			"word_count":       28,
			"duration_ms":      durationMs,
			"words_per_minute": 121.7,
			"avg_confidence":   session.AvgConfidence,
		},
		entity.StageTasks: {
			"items": []map[string]interface{}{
				{"text": "Pick up the reconnect handling", "owner": "", "due": ""},
			},
		},
		entity.StageSummary: {
			"summary":    "A short standup covering finished ingest retry work and the plan to start on reconnect handling.",
			"key_points": []string{"Ingest retries are done and in review", "Reconnect handling starts today", "No blockers reported"},
		},
	}

	for _, stage := range entity.EnrichmentStages() {
		appendEvent(entity.EventStageStarted, stage, map[string]interface{}{"stage": stage})

		raw, err := json.Marshal(stagePayloads[stage])
		if err != nil {
			log.Fatal("Error: Failed to encode stage payload:", err)
		}
		stageStarted := finalizedAt.Add(time.Second)
		row := model.EnrichmentResult{
			SessionId:   demoSessionID,
			Stage:       stage,
			Status:      string(entity.EnrichmentReady),
			Payload:     datatypes.JSON(raw),
			StartedAt:   &stageStarted,
			CompletedAt: &completedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatal("Error: Failed to create enrichment result:", err)
		}

		appendEvent(entity.EventStageReady, stage, map[string]interface{}{"stage": stage})
	}

	appendEvent(entity.EventSessionCompleted, "", map[string]interface{}{
		"state": string(entity.SessionCompleted),
	})

	log.Printf("✅ Success: Seeded session %s with %d segments and %d ledger events", demoSessionID, len(demoSegments), seq)
}
