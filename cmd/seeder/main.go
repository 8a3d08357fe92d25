package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"GCP_PROJECT"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

func main() {
	log.Info("Starting document store seeder...")
	cfg := loadConfig()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		log.Fatal("Refusing to seed without FIRESTORE_EMULATOR_HOST set; this script is for local development only")
	}

	ctx := context.Background()
	docStore, err := store.NewFirestore(ctx, cfg["GCP_PROJECT"])
	if err != nil {
		log.Fatalf("Failed to connect to document store: %s", err)
	}
	defer docStore.Close()

	now := time.Now().UTC()

	seed := func(collection, id string, data map[string]any) {
		if err := docStore.Set(ctx, collection, id, data); err != nil {
			log.Fatalf("Failed to seed %s/%s: %s", collection, id, err)
		}
		log.Info("Seeded document", "collection", collection, "id", id)
	}

	seed(store.Tournaments, "t-demo", map[string]any{
		"name":       "Demo Open 2026",
		"start_date": "2026-09-12",
		"end_date":   "2026-09-13",
		"country":    "Malaysia",
		"venue":      "Demo Arena",
	})

	seed(store.Events, "ev-ind", map[string]any{
		"tournament_id": "t-demo",
		"type":          "Individual",
		"gender":        "Male",
		"codes":         []any{"3-3-3", "3-6-3", "cycle", "Overall"},
	})
	seed(store.Events, "ev-relay", map[string]any{
		"tournament_id": "t-demo",
		"type":          "Team Relay",
		"codes":         []any{"cycle"},
	})

	seed(store.Users, "u-1", map[string]any{
		"global_id": "STK-0001",
		"registration_records": []any{
			map[string]any{"tournament_id": "t-demo", "events": []any{}},
		},
		"best_times": map[string]any{
			// Legacy raw-number representation, kept on purpose.
			"3-3-3": 2.89,
		},
	})
	seed(store.Users, "u-2", map[string]any{
		"global_id": "STK-0002",
		"registration_records": []any{
			map[string]any{"tournament_id": "t-demo", "events": []any{}},
		},
	})

	seed(store.Registrations, "reg-1", map[string]any{
		"tournament_id":     "t-demo",
		"user_global_id":    "STK-0001",
		"events_registered": []any{},
	})
	seed(store.Registrations, "reg-2", map[string]any{
		"tournament_id":     "t-demo",
		"user_global_id":    "STK-0002",
		"events_registered": []any{},
	})

	seed(store.Teams, "team-1", map[string]any{
		"tournament_id": "t-demo",
		"name":          "Fast Hands",
		"leader_id":     "STK-0001",
		"event_ids":     []any{"ev-relay"},
		"members": []any{
			map[string]any{"global_id": "STK-0001", "verified": true},
			map[string]any{"global_id": "STK-0002", "verified": false},
		},
	})

	seed(store.Records, "rec-1", map[string]any{
		"tournament_id":         "t-demo",
		"event":                 "Individual",
		"code":                  "3-6-3",
		"participant_global_id": "STK-0001",
		"try1":                  2.45,
		"try2":                  2.31,
		"try3":                  2.52,
		"best_time":             2.31,
		"status":                "verified",
		"classification":        "advance",
		"created_at":            now,
		"updated_at":            now,
	})
	seed(store.PrelimRecords, "prec-1", map[string]any{
		"tournament_id":         "t-demo",
		"event":                 "Individual",
		"code":                  "3-3-3",
		"participant_global_id": "STK-0002",
		"best_time":             3.05,
		"status":                "submitted",
		"classification":        "prelim",
		"created_at":            now,
	})

	log.Info("Seeding complete")
}
