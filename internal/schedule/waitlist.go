package schedule

import (
	"context"
	"fmt"
	"time"
)

const defaultSubSlotMinutes = 30

// SubSlot is one bookable interval inside a waitlist-class slot.
type SubSlot struct {
	Start time.Time
	End   time.Time
	// Key is the 24-hour "HH:MM" start used for occupancy tracking.
	Key string
	// Label is the human-readable range shown on the booking form.
	Label string
}

// SubSlots expands a waitlist slot into its bookable sub-intervals. The
// last interval may be shorter than the configured duration when the
// slot length is not an exact multiple.
func SubSlots(s Slot) []SubSlot {
	minutes := defaultSubSlotMinutes
	if s.Waitlist != nil && s.Waitlist.SubSlotDuration > 0 {
		minutes = s.Waitlist.SubSlotDuration
	}
	step := time.Duration(minutes) * time.Minute

	var subs []SubSlot
	for cur := s.Start; cur.Before(s.End); cur = cur.Add(step) {
		end := cur.Add(step)
		if end.After(s.End) {
			end = s.End
		}
		subs = append(subs, SubSlot{
			Start: cur,
			End:   end,
			Key:   cur.Format("15:04"),
			Label: TimeRangeLabel(cur, end),
		})
	}
	return subs
}

// TakenSubSlots returns the occupied sub-slot starts for a waitlist
// slot: the static layout plus the sub-slot claimed by a live booked
// or completed override, if any.
func TakenSubSlots(s Slot, overrides map[string]Override) map[string]bool {
	taken := make(map[string]bool)
	if s.Waitlist != nil {
		for _, key := range s.Waitlist.TakenStartTimes {
			taken[key] = true
		}
	}
	if o, ok := overrides[s.ID]; ok && o.SubSlot != "" {
		taken[o.SubSlot] = true
	}
	return taken
}

// SubSlotStatus is the booking-form view of one waitlist interval.
type SubSlotStatus struct {
	SubSlot
	Taken bool
}

// SubSlotAvailability lists the sub-slots of a waitlist slot with live
// occupancy applied. Non-waitlist slots have no sub-slots.
func (s *Service) SubSlotAvailability(ctx context.Context, slotID string) ([]SubSlotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if slot.BaseStatus != BaseWaitlist {
		return nil, nil
	}

	taken := TakenSubSlots(slot, s.loadOverrides(ctx))
	subs := SubSlots(slot)
	out := make([]SubSlotStatus, 0, len(subs))
	for _, sub := range subs {
		out = append(out, SubSlotStatus{SubSlot: sub, Taken: taken[sub.Key]})
	}
	return out, nil
}

// TimeRangeLabel renders a slot interval the way the calendar displays
// it, e.g. "9:00 AM - 9:30 AM".
func TimeRangeLabel(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
}

// DateLabel renders a slot date for booking records, e.g. "Wed, Dec 10, 2025".
func DateLabel(t time.Time) string {
	return t.Format("Mon, Jan 2, 2006")
}
