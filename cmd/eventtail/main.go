package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/pkg/events"
	"github.com/capitalrow/MinaProd-sub007/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// eventtail follows the live ledger feed on NATS and pretty-prints every
// event. Useful when debugging a recording client: run it next to the
// server and watch segments and stage results arrive.
func main() {
	durable := flag.String("durable", "eventtail", "durable consumer name")
	session := flag.String("session", "", "only show events for this session id")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}

	sub, err := nats.NewSubscriber(url)
	if err != nil {
		color.Red("Failed to connect to NATS at %s: %v", url, err)
		os.Exit(1)
	}
	defer sub.Close()

	err = sub.Subscribe(nats.SubjectPrefix+".>", *durable, func(ctx context.Context, event events.SessionEvent) error {
		if *session != "" && event.SessionID.String() != *session {
			return nil
		}
		printEvent(event)
		return nil
	})
	if err != nil {
		color.Red("Failed to subscribe: %v", err)
		os.Exit(1)
	}

	color.Cyan("👂 Tailing %s.> on %s (Ctrl+C to stop)\n", nats.SubjectPrefix, url)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func printEvent(event events.SessionEvent) {
	line := fmt.Sprintf("[%s #%d] %-28s %s", shortID(event.SessionID.String()), event.Sequence, event.Type, compactData(event.Data))

	switch event.Type {
	case entity.EventSegmentFinal, entity.EventSessionCompleted:
		color.Green(line)
	case entity.EventSegmentFailed, entity.EventStageFailed, entity.EventSessionFailed:
		color.Red(line)
	case entity.EventRecordStart, entity.EventRecordStop, entity.EventSessionFinalized:
		color.Yellow(line)
	case entity.EventStageStarted, entity.EventStageReady:
		color.Cyan(line)
	case entity.EventSessionPartiallyCompleted:
		color.Magenta(line)
	default:
		fmt.Println(line)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// compactData drops the envelope fields already shown on the line prefix.
func compactData(data map[string]interface{}) string {
	trimmed := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch k {
		case "session_id", "trace_id", "type", "sequence", "occurred_at":
			continue
		}
		trimmed[k] = v
	}
	if len(trimmed) == 0 {
		return ""
	}
	b, err := json.Marshal(trimmed)
	if err != nil {
		return ""
	}
	return string(b)
}
