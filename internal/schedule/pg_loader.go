package schedule

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgLoader reads the base schedule from the schedule_slots table,
// ordered by position so the calendar renders slots the way the clinic
// published them. See cmd/seed for the table layout.
type PgLoader struct {
	pool *pgxpool.Pool
}

func NewPgLoader(pool *pgxpool.Pool) *PgLoader {
	return &PgLoader{pool: pool}
}

func (l *PgLoader) Load(ctx context.Context) ([]Slot, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, doctor, location, start_time, end_time, base_status, waitlist
		FROM schedule_slots
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query schedule slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var (
			s        Slot
			status   string
			waitlist []byte
		)
		if err := rows.Scan(&s.ID, &s.Doctor, &s.Location, &s.Start, &s.End, &status, &waitlist); err != nil {
			return nil, fmt.Errorf("scan schedule slot: %w", err)
		}
		s.BaseStatus = BaseStatus(status)
		if len(waitlist) > 0 {
			var layout WaitlistLayout
			if err := json.Unmarshal(waitlist, &layout); err != nil {
				return nil, fmt.Errorf("slot %s: decode waitlist layout: %w", s.ID, err)
			}
			s.Waitlist = &layout
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule slots: %w", err)
	}
	return slots, nil
}
