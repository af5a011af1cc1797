package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bellhart/clinic-portal/internal/config"
	"github.com/bellhart/clinic-portal/internal/db"
	"github.com/bellhart/clinic-portal/internal/schedule"
)

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS schedule_slots (
	id         text PRIMARY KEY,
	doctor     text NOT NULL,
	location   text NOT NULL,
	start_time timestamptz NOT NULL,
	end_time   timestamptz NOT NULL,
	base_status text NOT NULL,
	waitlist   jsonb,
	position   int NOT NULL
)`

var locations = []string{"downtown", "north", "west"}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required (set in .env or environment)")
	}

	days := getInt("SEED_DAYS", 14)
	slotsPerDay := getInt("SEED_SLOTS_PER_DAY", 6)
	doctorCount := getInt("SEED_DOCTORS", 3)
	reset := os.Getenv("SEED_RESET") == "true"

	if seed := getInt("SEED_RANDOM_SEED", 0); seed != 0 {
		gofakeit.Seed(uint64(seed))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createSlotsTable); err != nil {
		log.Fatalf("create schedule_slots: %v", err)
	}

	if reset {
		if _, err := pool.Exec(ctx, "TRUNCATE schedule_slots"); err != nil {
			log.Fatalf("truncate schedule_slots: %v", err)
		}
		log.Println("schedule_slots truncated")
	}

	doctors := make([]string, 0, doctorCount)
	for i := 0; i < doctorCount; i++ {
		doctors = append(doctors, "Dr. "+gofakeit.LastName())
	}
	log.Printf("seeding %d days x %d slots across %d doctors", days, slotsPerDay, len(doctors))

	inserted, err := seedSlots(ctx, pool, doctors, days, slotsPerDay)
	if err != nil {
		log.Fatalf("seed slots: %v", err)
	}
	log.Printf("done: %d slots inserted", inserted)
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctors []string, days, slotsPerDay int) (int, error) {
	firstDay := time.Now().AddDate(0, 0, 1)
	firstDay = time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, time.Local)

	batch := &pgx.Batch{}
	position := 0

	for d := 0; d < days; d++ {
		day := firstDay.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		for s := 0; s < slotsPerDay; s++ {
			doctor := doctors[rand.Intn(len(doctors))]
			location := locations[rand.Intn(len(locations))]

			start := day.Add(time.Duration(9+s) * time.Hour)
			end := start.Add(time.Hour)

			status := schedule.BaseAvailable
			var waitlistJSON []byte
			// Roughly a quarter of slots run as shared waitlist blocks.
			if rand.Float64() < 0.25 {
				status = schedule.BaseWaitlist
				end = start.Add(2 * time.Hour)
				layout := schedule.WaitlistLayout{SubSlotDuration: 30}
				if rand.Float64() < 0.5 {
					layout.TakenStartTimes = []string{start.Format("15:04")}
				}
				var err error
				waitlistJSON, err = json.Marshal(layout)
				if err != nil {
					return 0, fmt.Errorf("marshal waitlist layout: %w", err)
				}
			}

			id := fmt.Sprintf("slot-%s-%s", start.Format("2006-01-02-15-04"), slugify(doctor))
			batch.Queue(`
				INSERT INTO schedule_slots (id, doctor, location, start_time, end_time, base_status, waitlist, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING
			`, id, doctor, location, start, end, string(status), waitlistJSON, position)
			position++
		}
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert slot %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func slugify(doctor string) string {
	out := make([]rune, 0, len(doctor))
	for _, r := range doctor {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '.':
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
