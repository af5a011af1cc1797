package schedule

import "time"

// BaseStatus is the default availability of a slot before any override.
type BaseStatus string

const (
	BaseAvailable BaseStatus = "available"
	BaseWaitlist  BaseStatus = "waitlist"
	BaseCompleted BaseStatus = "completed"
)

// OverrideStatus is the status a persisted override imposes on its slot.
type OverrideStatus string

const (
	OverrideBooked    OverrideStatus = "booked"
	OverrideCompleted OverrideStatus = "completed"
)

// EffectiveStatus is the status actually shown to the user: the base
// status unless an override exists.
type EffectiveStatus string

const (
	StatusAvailable EffectiveStatus = "available"
	StatusWaitlist  EffectiveStatus = "waitlist"
	StatusBooked    EffectiveStatus = "booked"
	StatusCompleted EffectiveStatus = "completed"
)

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeLabTest      AppointmentType = "lab-test"
	TypeFollowUp     AppointmentType = "follow-up"
)

type ContactMethod string

const (
	ContactPhone ContactMethod = "Phone"
	ContactEmail ContactMethod = "Email"
)

// WaitlistLayout describes the sub-slot grid of a waitlist-class slot.
// TakenStartTimes holds the statically pre-occupied sub-slot starts in
// "HH:MM" form; live bookings are layered on top at merge time.
type WaitlistLayout struct {
	SubSlotDuration int      `json:"slotDurationMinutes"`
	TakenStartTimes []string `json:"takenStartTimes"`
}

// Slot is one fixed calendar interval from the base schedule. Slots are
// loaded once at startup and never mutated.
type Slot struct {
	ID         string
	Doctor     string
	Location   string
	Start      time.Time
	End        time.Time
	BaseStatus BaseStatus
	Waitlist   *WaitlistLayout
}

// Patient carries the booking contact details collected from the form.
type Patient struct {
	Name             string          `json:"name" validate:"required,min=2"`
	HealthNumber     string          `json:"healthNumber" validate:"required"`
	DateOfBirth      string          `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Sex              string          `json:"sex" validate:"required"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty" validate:"omitempty,email"`
	PreferredContact []ContactMethod `json:"preferredContact" validate:"dive,oneof=Phone Email"`
}

// Booking is the payload stored on an override. Doctor, date, time slot
// and location are derived from the slot at booking time so the record
// displays without consulting the base schedule.
type Booking struct {
	Doctor   string          `json:"doctor"`
	Date     string          `json:"date"`
	TimeSlot string          `json:"timeSlot"`
	Type     AppointmentType `json:"type"`
	Location string          `json:"location"`
	Notes    string          `json:"notes,omitempty"`
	Patient  Patient         `json:"patient"`
}

// Override supersedes a slot's base status once booked. At most one
// override exists per slot; deleting it reverts the slot to its base
// status. SubSlot records the claimed "HH:MM" start for waitlist
// bookings so occupancy can be recomputed from live overrides.
type Override struct {
	Status    OverrideStatus `json:"status"`
	BookingID string         `json:"bookingId"`
	SubSlot   string         `json:"subSlot,omitempty"`
	Booking   Booking        `json:"booking"`
}

// EffectiveSlot is a slot with its override (if any) applied: what the
// calendar renders and what filters run against.
type EffectiveSlot struct {
	Slot
	Status EffectiveStatus
	// Type is the booked appointment type; empty when the slot has no
	// override.
	Type      AppointmentType
	BookingID string
	Booking   *Booking
	// TakenSubSlotCount is how many sub-slots of a waitlist slot are
	// occupied (static layout plus live booking); zero for other slots.
	TakenSubSlotCount int
}

// BookingRequest is what the UI submits to book or reschedule a slot.
// SubSlot is required for waitlist-class slots and ignored otherwise.
type BookingRequest struct {
	Type    AppointmentType `json:"type" validate:"required,appointment_type"`
	SubSlot string          `json:"subSlot,omitempty" validate:"omitempty,clock_key"`
	Notes   string          `json:"notes,omitempty"`
	Patient Patient         `json:"patient"`
}

// UpcomingAppointment is the dashboard view of a booked slot on or
// after the current day.
type UpcomingAppointment struct {
	SlotID    string          `json:"slotId"`
	BookingID string          `json:"bookingId"`
	Doctor    string          `json:"doctor"`
	Type      AppointmentType `json:"type"`
	Date      string          `json:"date"`
	TimeSlot  string          `json:"timeSlot"`
	Location  string          `json:"location"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
}
