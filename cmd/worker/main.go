package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bioattend/internal/attendance"
	"bioattend/internal/biometric"
	"bioattend/internal/config"
	"bioattend/internal/queue"
	"bioattend/internal/scanner"
	"bioattend/internal/store"
)

// Worker consumes capture events, runs the matcher and the session state
// machine, then records and publishes the outcome.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Client); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var scans, outcomes queue.Queue
	if cfg.QueueBackend == "memory" {
		scans = queue.NewInMemory(64)
		outcomes = queue.NewInMemory(64)
	} else {
		scans = queue.NewRedisQueue(redisClient.Client, "bioattend:scans")
		outcomes = queue.NewRedisQueue(redisClient.Client, "bioattend:outcomes")
	}

	repo := attendance.NewRepository(db.Client)
	sessions := attendance.NewService(repo, cfg.Location())
	matcher := biometric.NewMatcher(cfg.MatchThreshold, cfg.SSIMBlockSize)
	proc := scanner.NewProcessor(matcher, sessions, repo, nil)

	// Expose processing metrics for scraping.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			log.Printf("metrics listener stopped: %v", err)
		}
	}()

	messages, err := scans.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for captures...")
	for msg := range messages {
		if msg.Type != scanner.MsgCapture {
			continue
		}

		var evt scanner.CaptureEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("undecodable capture event: %v", err)
			continue
		}

		log.Printf("processing scan %s (%s)", evt.ScanID, evt.Action)
		out := proc.Handle(ctx, evt)

		if err := recordOutcome(ctx, repo, out); err != nil {
			log.Printf("scan %s: outcome update failed: %v", out.ScanID, err)
		}
		if body, err := json.Marshal(out); err == nil {
			if err := outcomes.Publish(ctx, queue.Message{Type: scanner.MsgOutcome, Body: body}); err != nil {
				log.Printf("scan %s: outcome publish failed: %v", out.ScanID, err)
			}
		}
		log.Printf("scan %s: %s", out.ScanID, out.Status)
	}

	log.Println("worker stopped")
}

// recordOutcome mirrors the published outcome onto the scan attempt row.
func recordOutcome(ctx context.Context, repo *attendance.Repository, out scanner.Outcome) error {
	var personID, sessionID, detail *string
	if out.PersonID != "" {
		personID = &out.PersonID
	}
	if out.Session != nil {
		sessionID = &out.Session.ID
	}
	if out.ErrorKind != "" {
		detail = &out.ErrorKind
	}
	return repo.ResolveAttempt(ctx, out.ScanID, out.Status, personID, out.Score, sessionID, detail)
}
