package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLoader(t *testing.T) {
	slots, err := NewEmbeddedLoader().Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	seen := make(map[string]bool, len(slots))
	hasWaitlist := false
	for _, s := range slots {
		assert.False(t, seen[s.ID], "slot ids must be unique")
		seen[s.ID] = true
		assert.True(t, s.End.After(s.Start))
		if s.BaseStatus == BaseWaitlist {
			hasWaitlist = true
			require.NotNil(t, s.Waitlist)
			assert.Positive(t, s.Waitlist.SubSlotDuration)
		}
	}
	assert.True(t, hasWaitlist, "default schedule carries waitlist slots")
}

func TestFileLoader(t *testing.T) {
	feed := `[
		{
			"id": "slot-1",
			"doctor": "Dr. Lee",
			"location": "downtown",
			"start": "2025-12-10T09:00:00",
			"end": "2025-12-10T10:00:00",
			"baseStatus": "available"
		},
		{
			"id": "slot-2",
			"doctor": "Dr. Kaur",
			"location": "west",
			"start": "2025-12-10T13:00:00",
			"end": "2025-12-10T15:00:00",
			"baseStatus": "waitlist",
			"waitlist": {"slotDurationMinutes": 30, "takenStartTimes": ["13:00"]}
		}
	]`
	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	loader, err := NewFileLoader(path)
	require.NoError(t, err)
	slots, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "slot-1", slots[0].ID)
	assert.Equal(t, time.Date(2025, 12, 10, 9, 0, 0, 0, time.Local), slots[0].Start)
	require.NotNil(t, slots[1].Waitlist)
	assert.Equal(t, []string{"13:00"}, slots[1].Waitlist.TakenStartTimes)
}

func TestFileLoaderMissingFile(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSlotsFromRecordsValidation(t *testing.T) {
	valid := slotRecord{
		ID:         "slot-1",
		Doctor:     "Dr. Lee",
		Location:   "downtown",
		Start:      "2025-12-10T09:00:00",
		End:        "2025-12-10T10:00:00",
		BaseStatus: BaseAvailable,
	}

	tests := []struct {
		name   string
		mutate func(*slotRecord)
	}{
		{"missing id", func(r *slotRecord) { r.ID = "" }},
		{"bad start time", func(r *slotRecord) { r.Start = "yesterday" }},
		{"bad end time", func(r *slotRecord) { r.End = "2025-12-10" }},
		{"end before start", func(r *slotRecord) { r.End = "2025-12-10T08:00:00" }},
		{"end equals start", func(r *slotRecord) { r.End = r.Start }},
		{"unknown base status", func(r *slotRecord) { r.BaseStatus = "closed" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			_, err := slotsFromRecords([]slotRecord{rec})
			assert.Error(t, err)
		})
	}

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := slotsFromRecords([]slotRecord{valid, valid})
		assert.Error(t, err)
	})

	t.Run("valid record", func(t *testing.T) {
		slots, err := slotsFromRecords([]slotRecord{valid})
		require.NoError(t, err)
		require.Len(t, slots, 1)
	})
}
