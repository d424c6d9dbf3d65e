package workflow

import (
	"context"

	"github.com/curelinehq/pedibook/internal/clinicapi"
)

// Confirmation is the terminal artifact of a successful booking: the server's
// echo combined with the doctor metadata the confirmation view displays. It
// lives only in memory.
type Confirmation struct {
	BookingID     int64
	DoctorName    string
	Specialty     string
	Date          string
	Slot          clinicapi.Slot
	ChildrenNames []string
	Message       string
}

// Submit validates and submits the booking exactly once per call.
//
// Preconditions are checked locally in order, short-circuiting on the first
// failure: at least one non-empty dependent name, then a selected slot. Each
// failure is a distinct validation error and no network call is made.
//
// On conflict (the slot was claimed between query and submit) the selection
// is dropped back to SlotsLoaded so the user re-queries, while the entered
// dependents and date are preserved. On any failure the form state survives
// for retry.
func (w *Workflow) Submit(ctx context.Context) (*Confirmation, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	names := trimmedNonEmpty(w.dependents)
	if len(names) == 0 {
		w.mu.Unlock()
		return nil, clinicapi.NewValidationError("no dependents")
	}
	if !w.hasSelection {
		w.mu.Unlock()
		return nil, clinicapi.NewValidationError("no slot selected")
	}
	if w.doctor == nil {
		w.mu.Unlock()
		return nil, clinicapi.NewValidationError("no doctor selected")
	}
	doctor := *w.doctor
	req := clinicapi.BookingRequest{
		DoctorID:      doctor.ID,
		Date:          w.date,
		Slot:          w.selected,
		ChildrenNames: names,
	}
	w.inFlight = true
	w.mu.Unlock()

	confirmation, err := w.bookings.CreateBooking(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if err != nil {
		if clinicapi.IsConflict(err) {
			w.hasSelection = false
			if w.state == SlotSelected {
				w.state = SlotsLoaded
			}
		}
		w.logger.Warn("booking submission failed",
			"doctor_id", req.DoctorID,
			"date", req.Date,
			"error", err,
		)
		return nil, err
	}

	w.logger.Info("booking confirmed",
		"booking_id", confirmation.ID,
		"doctor_id", req.DoctorID,
		"date", req.Date,
	)
	return assembleConfirmation(doctor, req, confirmation), nil
}

// assembleConfirmation prefers the server's echo and falls back to the
// submitted values, so a sparse response never loses confirmation data.
func assembleConfirmation(doctor clinicapi.Doctor, req clinicapi.BookingRequest, resp *clinicapi.BookingConfirmation) *Confirmation {
	c := &Confirmation{
		BookingID:     resp.ID,
		DoctorName:    doctor.Name,
		Specialty:     doctor.Specialty,
		Date:          resp.Date,
		Slot:          clinicapi.Slot{Start: resp.SlotStart, End: resp.SlotEnd},
		ChildrenNames: resp.ChildrenNames,
		Message:       resp.Message,
	}
	if c.Date == "" {
		c.Date = req.Date
	}
	if c.Slot.Start == "" {
		c.Slot = req.Slot
	}
	if len(c.ChildrenNames) == 0 {
		c.ChildrenNames = req.ChildrenNames
	}
	return c
}
