package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/bellhart/clinic-portal/internal/records"
	"github.com/bellhart/clinic-portal/internal/schedule"
	"github.com/bellhart/clinic-portal/internal/validation"
)

func getScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filters := schedule.Filters{
			Doctor:   q.Get("doctor"),
			Location: q.Get("location"),
		}
		for _, t := range q["type"] {
			filters.Types = append(filters.Types, schedule.AppointmentType(t))
		}
		for _, s := range q["status"] {
			filters.Statuses = append(filters.Statuses, schedule.EffectiveStatus(s))
		}

		slots := svc.Filtered(r.Context(), filters)
		resp := make([]SlotResponse, 0, len(slots))
		for _, es := range slots {
			resp = append(resp, slotResponse(es))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID := chi.URLParam(r, "id")

		es, err := svc.SlotByID(r.Context(), slotID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := slotResponse(es)
		if subs, err := svc.SubSlotAvailability(r.Context(), slotID); err == nil {
			for _, sub := range subs {
				resp.SubSlots = append(resp.SubSlots, SubSlotResponse{
					Key:   sub.Key,
					Label: sub.Label,
					Taken: sub.Taken,
				})
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func bookSlotHandler(svc *schedule.Service, rules validation.RuleSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schedule.BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if problems := validateBooking(req, rules); len(problems) > 0 {
			writeValidationError(w, problems)
			return
		}

		override, err := svc.Book(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bookingResponse(chi.URLParam(r, "id"), *override))
	}
}

func cancelSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleScheduleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func completeSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID := chi.URLParam(r, "id")
		override, err := svc.Complete(r.Context(), slotID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookingResponse(slotID, *override))
	}
}

func rescheduleSlotHandler(svc *schedule.Service, rules validation.RuleSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.NewSlotID == "" {
			writeError(w, http.StatusBadRequest, "missing_new_slot_id", "newSlotId is required")
			return
		}

		if problems := validateBooking(req.BookingRequest, rules); len(problems) > 0 {
			writeValidationError(w, problems)
			return
		}

		override, err := svc.Reschedule(r.Context(), chi.URLParam(r, "id"), req.NewSlotID, req.BookingRequest)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookingResponse(req.NewSlotID, *override))
	}
}

func upcomingHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upcoming := svc.Upcoming(r.Context())
		if upcoming == nil {
			upcoming = []schedule.UpcomingAppointment{}
		}
		writeJSON(w, http.StatusOK, upcoming)
	}
}

func listRecordsHandler(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := records.Category(r.URL.Query().Get("category"))
		recs := svc.ByCategory(category)
		if recs == nil {
			recs = []records.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func validationRulesHandler(rules validation.RuleSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := rules.Raw()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

// validateBooking layers the struct-tag checks and the rules-feed
// checks, collecting every field problem in one response.
func validateBooking(req schedule.BookingRequest, rules validation.RuleSet) map[string]string {
	problems := make(map[string]string)

	if err := validation.ValidateStruct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems[fe.Namespace()] = "failed " + fe.Tag() + " validation"
			}
		} else {
			problems["request"] = err.Error()
		}
	}

	for field, msg := range rules.CheckBooking(req) {
		problems[field] = msg
	}
	return problems
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotNotBookable):
		writeError(w, http.StatusConflict, "slot_not_bookable", err.Error())
	case errors.Is(err, schedule.ErrSlotAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, schedule.ErrSubSlotRequired):
		writeError(w, http.StatusBadRequest, "sub_slot_required", err.Error())
	case errors.Is(err, schedule.ErrSubSlotInvalid):
		writeError(w, http.StatusBadRequest, "sub_slot_invalid", err.Error())
	case errors.Is(err, schedule.ErrSubSlotTaken):
		writeError(w, http.StatusConflict, "sub_slot_taken", err.Error())
	case errors.Is(err, schedule.ErrNotBooked):
		writeError(w, http.StatusConflict, "not_booked", err.Error())
	case errors.Is(err, schedule.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "already_completed", err.Error())
	case errors.Is(err, schedule.ErrNotCompletable):
		writeError(w, http.StatusConflict, "not_completable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
