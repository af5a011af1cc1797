package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitlistSlot(duration int) Slot {
	day := time.Date(2025, 12, 12, 0, 0, 0, 0, time.Local)
	return Slot{
		ID:         "slot-w",
		Doctor:     "Dr. Kaur",
		Location:   "west",
		Start:      day.Add(13 * time.Hour),
		End:        day.Add(15 * time.Hour),
		BaseStatus: BaseWaitlist,
		Waitlist: &WaitlistLayout{
			SubSlotDuration: duration,
			TakenStartTimes: []string{"13:00"},
		},
	}
}

func TestSubSlots(t *testing.T) {
	subs := SubSlots(waitlistSlot(30))
	require.Len(t, subs, 4)

	assert.Equal(t, "13:00", subs[0].Key)
	assert.Equal(t, "13:30", subs[1].Key)
	assert.Equal(t, "14:00", subs[2].Key)
	assert.Equal(t, "14:30", subs[3].Key)
	assert.Equal(t, "1:00 PM - 1:30 PM", subs[0].Label)
}

func TestSubSlotsClampsLastInterval(t *testing.T) {
	// 120-minute slot with 45-minute sub-slots: the last one is short.
	subs := SubSlots(waitlistSlot(45))
	require.Len(t, subs, 3)
	assert.Equal(t, "14:30", subs[2].Key)
	assert.True(t, subs[2].End.Equal(subs[2].Start.Add(30*time.Minute)))
}

func TestSubSlotsDefaultDuration(t *testing.T) {
	slot := waitlistSlot(0)
	slot.Waitlist = nil
	subs := SubSlots(slot)
	require.Len(t, subs, 4, "missing layout falls back to 30-minute sub-slots")
}

func TestTakenSubSlots(t *testing.T) {
	slot := waitlistSlot(30)

	t.Run("static layout only", func(t *testing.T) {
		taken := TakenSubSlots(slot, nil)
		assert.Equal(t, map[string]bool{"13:00": true}, taken)
	})

	t.Run("live booking layers on top", func(t *testing.T) {
		overrides := map[string]Override{
			"slot-w": {Status: OverrideBooked, BookingID: "booking-001", SubSlot: "14:00"},
		}
		taken := TakenSubSlots(slot, overrides)
		assert.Equal(t, map[string]bool{"13:00": true, "14:00": true}, taken)
	})

	t.Run("override on another slot is ignored", func(t *testing.T) {
		overrides := map[string]Override{
			"slot-other": {Status: OverrideBooked, BookingID: "booking-001", SubSlot: "14:00"},
		}
		taken := TakenSubSlots(slot, overrides)
		assert.Equal(t, map[string]bool{"13:00": true}, taken)
	})
}

func TestTimeRangeLabel(t *testing.T) {
	start := time.Date(2025, 12, 12, 9, 0, 0, 0, time.Local)
	assert.Equal(t, "9:00 AM - 9:30 AM", TimeRangeLabel(start, start.Add(30*time.Minute)))

	afternoon := time.Date(2025, 12, 12, 13, 30, 0, 0, time.Local)
	assert.Equal(t, "1:30 PM - 2:00 PM", TimeRangeLabel(afternoon, afternoon.Add(30*time.Minute)))
}

func TestDateLabel(t *testing.T) {
	assert.Equal(t, "Wed, Dec 10, 2025", DateLabel(time.Date(2025, 12, 10, 9, 0, 0, 0, time.Local)))
}
