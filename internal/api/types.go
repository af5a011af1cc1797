package api

import (
	"time"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

// RescheduleRequest moves an existing booking to a new slot. The
// booking fields describe the appointment on the target slot.
type RescheduleRequest struct {
	NewSlotID string `json:"newSlotId" validate:"required"`
	schedule.BookingRequest
}

type SubSlotResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Taken bool   `json:"taken"`
}

type SlotResponse struct {
	ID                string            `json:"id"`
	Doctor            string            `json:"doctor"`
	Location          string            `json:"location"`
	Start             time.Time         `json:"start"`
	End               time.Time         `json:"end"`
	Status            string            `json:"status"`
	Type              string            `json:"type,omitempty"`
	BookingID         string            `json:"bookingId,omitempty"`
	Booking           *schedule.Booking `json:"booking,omitempty"`
	TakenSubSlotCount int               `json:"takenSubSlotCount,omitempty"`
	SubSlots          []SubSlotResponse `json:"subSlots,omitempty"`
}

type BookingResponse struct {
	SlotID    string           `json:"slotId"`
	Status    string           `json:"status"`
	BookingID string           `json:"bookingId"`
	SubSlot   string           `json:"subSlot,omitempty"`
	Booking   schedule.Booking `json:"booking"`
}

func slotResponse(es schedule.EffectiveSlot) SlotResponse {
	return SlotResponse{
		ID:                es.ID,
		Doctor:            es.Doctor,
		Location:          es.Location,
		Start:             es.Start,
		End:               es.End,
		Status:            string(es.Status),
		Type:              string(es.Type),
		BookingID:         es.BookingID,
		Booking:           es.Booking,
		TakenSubSlotCount: es.TakenSubSlotCount,
	}
}

func bookingResponse(slotID string, o schedule.Override) BookingResponse {
	return BookingResponse{
		SlotID:    slotID,
		Status:    string(o.Status),
		BookingID: o.BookingID,
		SubSlot:   o.SubSlot,
		Booking:   o.Booking,
	}
}
