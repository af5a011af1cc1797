package schedule

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
)

const slotTimeLayout = "2006-01-02T15:04:05"

// Loader supplies the read-only base schedule once at startup. The core
// treats the result as given and never mutates it.
type Loader interface {
	Load(ctx context.Context) ([]Slot, error)
}

// slotRecord is the wire form of a base slot. Times are wall-clock
// local, matching how the clinic publishes its calendar.
type slotRecord struct {
	ID         string          `json:"id"`
	Doctor     string          `json:"doctor"`
	Location   string          `json:"location"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	BaseStatus BaseStatus      `json:"baseStatus"`
	Waitlist   *WaitlistLayout `json:"waitlist,omitempty"`
}

//go:embed baseschedule.json
var embeddedSchedule []byte

// StaticLoader decodes a base schedule from raw JSON, either the
// embedded default or an external file.
type StaticLoader struct {
	data []byte
}

// NewEmbeddedLoader returns a loader backed by the compiled-in default
// schedule.
func NewEmbeddedLoader() *StaticLoader {
	return &StaticLoader{data: embeddedSchedule}
}

// NewFileLoader reads the base schedule from path.
func NewFileLoader(path string) (*StaticLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read base schedule: %w", err)
	}
	return &StaticLoader{data: data}, nil
}

func (l *StaticLoader) Load(_ context.Context) ([]Slot, error) {
	var records []slotRecord
	if err := json.Unmarshal(l.data, &records); err != nil {
		return nil, fmt.Errorf("decode base schedule: %w", err)
	}
	return slotsFromRecords(records)
}

func slotsFromRecords(records []slotRecord) ([]Slot, error) {
	slots := make([]Slot, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("base schedule slot missing id")
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("duplicate slot id %q in base schedule", rec.ID)
		}
		seen[rec.ID] = true

		start, err := time.ParseInLocation(slotTimeLayout, rec.Start, time.Local)
		if err != nil {
			return nil, fmt.Errorf("slot %s: parse start: %w", rec.ID, err)
		}
		end, err := time.ParseInLocation(slotTimeLayout, rec.End, time.Local)
		if err != nil {
			return nil, fmt.Errorf("slot %s: parse end: %w", rec.ID, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("slot %s: end %s is not after start %s", rec.ID, rec.End, rec.Start)
		}

		switch rec.BaseStatus {
		case BaseAvailable, BaseWaitlist, BaseCompleted:
		default:
			return nil, fmt.Errorf("slot %s: unknown base status %q", rec.ID, rec.BaseStatus)
		}

		slots = append(slots, Slot{
			ID:         rec.ID,
			Doctor:     rec.Doctor,
			Location:   rec.Location,
			Start:      start,
			End:        end,
			BaseStatus: rec.BaseStatus,
			Waitlist:   rec.Waitlist,
		})
	}
	return slots, nil
}
