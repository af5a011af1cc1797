package schedule

// Merge combines the base schedule with the current overrides into the
// effective slot list. The result preserves base-schedule order, never
// drops a slot, and is recomputed from scratch on every call so it can
// never serve a stale view.
func Merge(base []Slot, overrides map[string]Override) []EffectiveSlot {
	merged := make([]EffectiveSlot, 0, len(base))
	for _, slot := range base {
		es := EffectiveSlot{
			Slot:   slot,
			Status: EffectiveStatus(slot.BaseStatus),
		}
		if slot.BaseStatus == BaseWaitlist {
			es.TakenSubSlotCount = len(TakenSubSlots(slot, overrides))
		}
		if o, ok := overrides[slot.ID]; ok {
			booking := o.Booking
			es.Status = EffectiveStatus(o.Status)
			es.Type = booking.Type
			es.BookingID = o.BookingID
			es.Booking = &booking
		}
		merged = append(merged, es)
	}
	return merged
}

// Filters narrows the merged schedule. Every dimension is independently
// optional: an empty value (or "all" for the dropdown dimensions)
// passes everything through.
type Filters struct {
	Doctor   string
	Location string
	Types    []AppointmentType
	Statuses []EffectiveStatus
}

// Apply returns the order-preserving subsequence of slots matching all
// set filter dimensions.
func (f Filters) Apply(slots []EffectiveSlot) []EffectiveSlot {
	out := make([]EffectiveSlot, 0, len(slots))
	for _, s := range slots {
		if !f.matches(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f Filters) matches(s EffectiveSlot) bool {
	if f.Doctor != "" && f.Doctor != "all" && s.Doctor != f.Doctor {
		return false
	}
	if f.Location != "" && f.Location != "all" && s.Location != f.Location {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, s.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, s.Status) {
		return false
	}
	return true
}

func containsType(types []AppointmentType, t AppointmentType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []EffectiveStatus, s EffectiveStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
