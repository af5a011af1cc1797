package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeFixture() []Slot {
	day := time.Date(2025, 12, 10, 0, 0, 0, 0, time.Local)
	return []Slot{
		{
			ID:         "slot-a",
			Doctor:     "Dr. Lee",
			Location:   "downtown",
			Start:      day.Add(9 * time.Hour),
			End:        day.Add(10 * time.Hour),
			BaseStatus: BaseAvailable,
		},
		{
			ID:         "slot-b",
			Doctor:     "Dr. Smith",
			Location:   "north",
			Start:      day.Add(10 * time.Hour),
			End:        day.Add(11 * time.Hour),
			BaseStatus: BaseAvailable,
		},
		{
			ID:         "slot-c",
			Doctor:     "Dr. Lee",
			Location:   "downtown",
			Start:      day.Add(11 * time.Hour),
			End:        day.Add(12 * time.Hour),
			BaseStatus: BaseCompleted,
		},
		{
			ID:         "slot-d",
			Doctor:     "Dr. Kaur",
			Location:   "west",
			Start:      day.Add(13 * time.Hour),
			End:        day.Add(15 * time.Hour),
			BaseStatus: BaseWaitlist,
			Waitlist: &WaitlistLayout{
				SubSlotDuration: 30,
				TakenStartTimes: []string{"13:00", "14:00"},
			},
		},
	}
}

func TestMergeWithoutOverrides(t *testing.T) {
	base := mergeFixture()
	merged := Merge(base, nil)
	require.Len(t, merged, len(base))

	for i, es := range merged {
		assert.Equal(t, base[i].ID, es.ID, "base order must be preserved")
		assert.Equal(t, EffectiveStatus(base[i].BaseStatus), es.Status)
		assert.Empty(t, es.BookingID)
		assert.Nil(t, es.Booking)
	}

	assert.Equal(t, 2, merged[3].TakenSubSlotCount, "static taken starts count toward occupancy")
}

func TestMergeAppliesOverride(t *testing.T) {
	base := mergeFixture()
	overrides := map[string]Override{
		"slot-b": {
			Status:    OverrideBooked,
			BookingID: "booking-001",
			Booking: Booking{
				Doctor:   "Dr. Smith",
				Date:     "Wed, Dec 10, 2025",
				TimeSlot: "10:00 AM - 11:00 AM",
				Type:     TypeConsultation,
				Location: "north",
				Patient:  Patient{Name: "Rosa Vance"},
			},
		},
	}

	merged := Merge(base, overrides)
	require.Len(t, merged, len(base))

	booked := merged[1]
	assert.Equal(t, StatusBooked, booked.Status)
	assert.Equal(t, "booking-001", booked.BookingID)
	assert.Equal(t, TypeConsultation, booked.Type)
	require.NotNil(t, booked.Booking)
	assert.Equal(t, "Rosa Vance", booked.Booking.Patient.Name)

	// Untouched slots keep their base status.
	assert.Equal(t, StatusAvailable, merged[0].Status)
	assert.Equal(t, StatusCompleted, merged[2].Status)
}

func TestMergeCountsLiveWaitlistBooking(t *testing.T) {
	base := mergeFixture()
	overrides := map[string]Override{
		"slot-d": {
			Status:    OverrideBooked,
			BookingID: "booking-001",
			SubSlot:   "13:30",
		},
	}

	merged := Merge(base, overrides)
	assert.Equal(t, 3, merged[3].TakenSubSlotCount)
	assert.Equal(t, StatusBooked, merged[3].Status)
}

func TestFiltersApply(t *testing.T) {
	base := mergeFixture()
	overrides := map[string]Override{
		"slot-b": {
			Status:    OverrideBooked,
			BookingID: "booking-001",
			Booking:   Booking{Type: TypeLabTest},
		},
	}
	merged := Merge(base, overrides)

	tests := []struct {
		name    string
		filters Filters
		wantIDs []string
	}{
		{
			name:    "no filters pass everything",
			filters: Filters{},
			wantIDs: []string{"slot-a", "slot-b", "slot-c", "slot-d"},
		},
		{
			name:    "all sentinel passes everything",
			filters: Filters{Doctor: "all", Location: "all"},
			wantIDs: []string{"slot-a", "slot-b", "slot-c", "slot-d"},
		},
		{
			name:    "by doctor",
			filters: Filters{Doctor: "Dr. Lee"},
			wantIDs: []string{"slot-a", "slot-c"},
		},
		{
			name:    "by location",
			filters: Filters{Location: "west"},
			wantIDs: []string{"slot-d"},
		},
		{
			name:    "by status",
			filters: Filters{Statuses: []EffectiveStatus{StatusAvailable}},
			wantIDs: []string{"slot-a"},
		},
		{
			name:    "multiple statuses",
			filters: Filters{Statuses: []EffectiveStatus{StatusAvailable, StatusWaitlist}},
			wantIDs: []string{"slot-a", "slot-d"},
		},
		{
			name:    "by booked type",
			filters: Filters{Types: []AppointmentType{TypeLabTest}},
			wantIDs: []string{"slot-b"},
		},
		{
			name:    "dimensions combine with and",
			filters: Filters{Doctor: "Dr. Lee", Statuses: []EffectiveStatus{StatusCompleted}},
			wantIDs: []string{"slot-c"},
		},
		{
			name:    "no match yields empty",
			filters: Filters{Doctor: "Dr. Nobody"},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filters.Apply(merged)
			ids := make([]string, 0, len(got))
			for _, es := range got {
				ids = append(ids, es.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
