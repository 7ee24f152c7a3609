package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// ledgercheck audits the append-only ledger: per-session sequences must be
// gapless from 1, dedupe keys unique, and terminal sessions must not hold
// unresolved enrichment rows. Exits non-zero when anything is off.
func main() {
	sessionFlag := flag.String("session", "", "check a single session id instead of all")
	flag.Parse()

	// 1. Load Environment
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to DB
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	query := db.Order("created_at")
	if *sessionFlag != "" {
		id, err := uuid.Parse(*sessionFlag)
		if err != nil {
			log.Fatal("Error: -session is not a valid uuid:", err)
		}
		query = query.Where("id = ?", id)
	}

	var sessions []model.RecordingSession
	if err := query.Find(&sessions).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	log.Printf("🔍 LEDGER INTEGRITY CHECK over %d sessions", len(sessions))

	problems := 0
	for _, s := range sessions {
		var entries []model.LedgerEntry
		if err := db.Where("session_id = ?", s.Id).Order("sequence").Find(&entries).Error; err != nil {
			log.Fatal("Query failed:", err)
		}

		log.Println(strings.Repeat("─", 50))
		log.Printf("Session %s  state=%s  events=%d", s.Id, s.State, len(entries))

		prev := int64(0)
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			if e.Sequence != prev+1 {
				problems++
				log.Printf("  ❌ sequence jumps %d -> %d", prev, e.Sequence)
			}
			prev = e.Sequence

			if seen[e.DedupeKey] {
				problems++
				log.Printf("  ❌ duplicate dedupe key '%s' at sequence %d", e.DedupeKey, e.Sequence)
			}
			seen[e.DedupeKey] = true
		}

		state := entity.SessionState(s.State)
		if state.Terminal() && state != entity.SessionFailed {
			var unresolved int64
			err := db.Model(&model.EnrichmentResult{}).
				Where("session_id = ? AND status IN ?", s.Id, []string{
					string(entity.EnrichmentPending),
					string(entity.EnrichmentRunning),
				}).
				Count(&unresolved).Error
			if err != nil {
				log.Fatal("Query failed:", err)
			}
			if unresolved > 0 {
				problems++
				log.Printf("  ❌ %d enrichment rows unresolved after terminal state", unresolved)
			}
		}
	}

	log.Println(strings.Repeat("─", 50))
	if problems == 0 {
		log.Println("✅ Success: ledger is gapless and deduplicated")
		return
	}
	log.Printf("❌ Found %d integrity problems", problems)
	os.Exit(1)
}
