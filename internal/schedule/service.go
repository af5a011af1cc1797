package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/events"
)

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotNotBookable   = errors.New("slot is not open for booking")
	ErrSlotAlreadyBooked = errors.New("slot already has a booking")
	ErrSubSlotRequired   = errors.New("waitlist booking requires a sub-slot start time")
	ErrSubSlotInvalid    = errors.New("requested sub-slot is not part of this waitlist slot")
	ErrSubSlotTaken      = errors.New("requested sub-slot is already taken")
	ErrNotBooked         = errors.New("slot has no booking")
	ErrAlreadyCompleted  = errors.New("appointment is already completed")
	ErrNotCompletable    = errors.New("appointment cannot be completed before its start time")
)

// Store persists the override mapping as a single blob. Load must fail
// soft on a corrupt blob (empty mapping, no error); transport failures
// are surfaced and absorbed by the service.
type Store interface {
	Load(ctx context.Context) (map[string]Override, error)
	Save(ctx context.Context, overrides map[string]Override) error
}

// Service owns the appointment state machine. Every operation is a
// full load-mutate-save cycle over the override store, serialized by
// one mutex: the portal dispatches one UI event at a time, and this is
// its process-wide equivalent.
type Service struct {
	mu    sync.Mutex
	base  []Slot
	byID  map[string]Slot
	store Store
	bus   *events.Bus
	log   *zap.Logger
	now   func() time.Time
}

func NewService(base []Slot, store Store, bus *events.Bus, logger *zap.Logger) *Service {
	byID := make(map[string]Slot, len(base))
	for _, s := range base {
		byID[s.ID] = s
	}
	return &Service{
		base:  base,
		byID:  byID,
		store: store,
		bus:   bus,
		log:   logger,
		now:   time.Now,
	}
}

// Merged returns the effective schedule: base slots with overrides
// applied, in base order.
func (s *Service) Merged(ctx context.Context) []EffectiveSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Merge(s.base, s.loadOverrides(ctx))
}

// Filtered returns the merged schedule narrowed by the given filters.
func (s *Service) Filtered(ctx context.Context, f Filters) []EffectiveSlot {
	return f.Apply(s.Merged(ctx))
}

// SlotByID returns one effective slot.
func (s *Service) SlotByID(ctx context.Context, slotID string) (EffectiveSlot, error) {
	for _, es := range s.Merged(ctx) {
		if es.ID == slotID {
			return es, nil
		}
	}
	return EffectiveSlot{}, ErrSlotNotFound
}

// Book transitions an available or waitlist slot to booked: it
// allocates the next booking ID, writes the override, and announces
// the change. Waitlist slots additionally claim one free sub-slot.
func (s *Service) Book(ctx context.Context, slotID string, req BookingRequest) (*Override, error) {
	override, err := s.book(ctx, slotID, req)
	if err != nil {
		return nil, err
	}
	s.announce(slotID, override.BookingID)
	return override, nil
}

func (s *Service) book(ctx context.Context, slotID string, req BookingRequest) (*Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}

	overrides := s.loadOverrides(ctx)
	if _, exists := overrides[slotID]; exists {
		return nil, ErrSlotAlreadyBooked
	}
	if slot.BaseStatus == BaseCompleted {
		return nil, ErrSlotNotBookable
	}

	override, err := s.buildOverride(slot, req, NextBookingID(overrides), overrides)
	if err != nil {
		return nil, err
	}

	overrides[slotID] = override
	s.persist(ctx, overrides)

	s.log.Info("appointment booked",
		zap.String("slot_id", slotID),
		zap.String("booking_id", override.BookingID),
		zap.String("type", string(req.Type)),
	)
	return &override, nil
}

// Cancel deletes the override for a slot, reverting it to its base
// status. An unknown slot or a slot with no booking is a no-op.
// Completed appointments are terminal and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, slotID string) error {
	bookingID, cancelled, err := s.cancel(ctx, slotID)
	if err != nil || !cancelled {
		return err
	}
	s.announce(slotID, bookingID)
	return nil
}

func (s *Service) cancel(ctx context.Context, slotID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[slotID]; !ok {
		return "", false, nil
	}

	overrides := s.loadOverrides(ctx)
	override, ok := overrides[slotID]
	if !ok {
		return "", false, nil
	}
	if override.Status == OverrideCompleted {
		return "", false, ErrAlreadyCompleted
	}

	delete(overrides, slotID)
	s.persist(ctx, overrides)

	s.log.Info("appointment cancelled",
		zap.String("slot_id", slotID),
		zap.String("booking_id", override.BookingID),
	)
	return override.BookingID, true, nil
}

// Complete marks a booked appointment completed. Only appointments
// whose slot start is strictly in the past qualify; the booking ID and
// payload are preserved and the state is terminal.
func (s *Service) Complete(ctx context.Context, slotID string) (*Override, error) {
	override, err := s.complete(ctx, slotID)
	if err != nil {
		return nil, err
	}
	s.announce(slotID, override.BookingID)
	return override, nil
}

func (s *Service) complete(ctx context.Context, slotID string) (*Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.byID[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}

	overrides := s.loadOverrides(ctx)
	override, ok := overrides[slotID]
	if !ok {
		return nil, ErrNotBooked
	}
	if override.Status == OverrideCompleted {
		return nil, ErrAlreadyCompleted
	}
	if !slot.Start.Before(s.now()) {
		return nil, ErrNotCompletable
	}

	override.Status = OverrideCompleted
	overrides[slotID] = override
	s.persist(ctx, overrides)

	s.log.Info("appointment completed",
		zap.String("slot_id", slotID),
		zap.String("booking_id", override.BookingID),
	)
	return &override, nil
}

// Reschedule moves a booking from one slot to another, reusing the
// original booking ID. The old delete and the new insert land in a
// single store save, so a write failure cannot lose the booking.
func (s *Service) Reschedule(ctx context.Context, oldSlotID, newSlotID string, req BookingRequest) (*Override, error) {
	override, err := s.reschedule(ctx, oldSlotID, newSlotID, req)
	if err != nil {
		return nil, err
	}
	s.announce(newSlotID, override.BookingID)
	return override, nil
}

func (s *Service) reschedule(ctx context.Context, oldSlotID, newSlotID string, req BookingRequest) (*Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newSlot, ok := s.byID[newSlotID]
	if !ok {
		return nil, ErrSlotNotFound
	}

	overrides := s.loadOverrides(ctx)

	bookingID := NextBookingID(overrides)
	if old, ok := overrides[oldSlotID]; ok {
		if old.Status == OverrideCompleted {
			return nil, ErrAlreadyCompleted
		}
		bookingID = old.BookingID
	}

	if newSlotID != oldSlotID {
		if _, exists := overrides[newSlotID]; exists {
			return nil, ErrSlotAlreadyBooked
		}
	}
	if newSlot.BaseStatus == BaseCompleted {
		return nil, ErrSlotNotBookable
	}

	// Validate the target against occupancy as it will be once the old
	// booking is released.
	remaining := make(map[string]Override, len(overrides))
	for id, o := range overrides {
		if id == oldSlotID {
			continue
		}
		remaining[id] = o
	}
	override, err := s.buildOverride(newSlot, req, bookingID, remaining)
	if err != nil {
		return nil, err
	}

	delete(overrides, oldSlotID)
	overrides[newSlotID] = override
	s.persist(ctx, overrides)

	s.log.Info("appointment rescheduled",
		zap.String("from_slot_id", oldSlotID),
		zap.String("to_slot_id", newSlotID),
		zap.String("booking_id", bookingID),
	)
	return &override, nil
}

// Upcoming lists booked appointments on or after the current day,
// earliest first. This backs the dashboard card list.
func (s *Service) Upcoming(ctx context.Context) []UpcomingAppointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides := s.loadOverrides(ctx)
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var upcoming []UpcomingAppointment
	for _, slot := range s.base {
		override, ok := overrides[slot.ID]
		if !ok || override.Status != OverrideBooked {
			continue
		}
		if slot.Start.Before(today) {
			continue
		}
		upcoming = append(upcoming, UpcomingAppointment{
			SlotID:    slot.ID,
			BookingID: override.BookingID,
			Doctor:    override.Booking.Doctor,
			Type:      override.Booking.Type,
			Date:      override.Booking.Date,
			TimeSlot:  override.Booking.TimeSlot,
			Location:  override.Booking.Location,
			Start:     slot.Start,
			End:       slot.End,
		})
	}

	// Base order is not guaranteed chronological.
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})
	return upcoming
}

// buildOverride validates the request against the target slot and
// produces the override to store. For waitlist slots the requested
// sub-slot must be one of the generated intervals and not yet taken.
func (s *Service) buildOverride(slot Slot, req BookingRequest, bookingID string, overrides map[string]Override) (Override, error) {
	var (
		timeLabel string
		subKey    string
	)

	if slot.BaseStatus == BaseWaitlist {
		if req.SubSlot == "" {
			return Override{}, ErrSubSlotRequired
		}
		sub, ok := findSubSlot(slot, req.SubSlot)
		if !ok {
			return Override{}, ErrSubSlotInvalid
		}
		if TakenSubSlots(slot, overrides)[sub.Key] {
			return Override{}, ErrSubSlotTaken
		}
		timeLabel = sub.Label
		subKey = sub.Key
	} else {
		timeLabel = TimeRangeLabel(slot.Start, slot.End)
	}

	return Override{
		Status:    OverrideBooked,
		BookingID: bookingID,
		SubSlot:   subKey,
		Booking: Booking{
			Doctor:   slot.Doctor,
			Date:     DateLabel(slot.Start),
			TimeSlot: timeLabel,
			Type:     req.Type,
			Location: slot.Location,
			Notes:    req.Notes,
			Patient:  req.Patient,
		},
	}, nil
}

func findSubSlot(slot Slot, key string) (SubSlot, bool) {
	for _, sub := range SubSlots(slot) {
		if sub.Key == key {
			return sub, true
		}
	}
	return SubSlot{}, false
}

// loadOverrides fails soft: with no readable override blob the base
// schedule stays fully usable with zero bookings.
func (s *Service) loadOverrides(ctx context.Context) map[string]Override {
	overrides, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn("load overrides failed, continuing with empty mapping", zap.Error(err))
		return map[string]Override{}
	}
	if overrides == nil {
		return map[string]Override{}
	}
	return overrides
}

// persist fails soft: a rejected write is logged and the operation
// still appears to succeed in memory, at the documented cost of not
// surviving a reload.
func (s *Service) persist(ctx context.Context, overrides map[string]Override) {
	if err := s.store.Save(ctx, overrides); err != nil {
		s.log.Error("save overrides failed, change will not survive reload", zap.Error(err))
	}
}

// announce publishes the change event. Callers invoke it after the
// mutex is released: handlers run synchronously on this goroutine and
// are allowed to read back through the service.
func (s *Service) announce(slotID, bookingID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Name:      events.ScheduleChanged,
		SlotID:    slotID,
		BookingID: bookingID,
		At:        s.now(),
	})
}

// String renders an override for log-friendly debugging.
func (o Override) String() string {
	return fmt.Sprintf("%s(%s)", o.Status, o.BookingID)
}
