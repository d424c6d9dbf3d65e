// Package workflow coordinates one appointment booking attempt: browse the
// doctor directory, load available slots for a date, select one slot, attach
// dependents, and submit. One Workflow value is one booking attempt from
// doctor selection through confirmation or abandonment.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/curelinehq/pedibook/internal/clinicapi"
	"github.com/curelinehq/pedibook/pkg/logging"
)

// DirectoryService lists doctors and their profiles.
type DirectoryService interface {
	ListDoctors(ctx context.Context) ([]clinicapi.Doctor, error)
	GetDoctor(ctx context.Context, doctorID int64) (*clinicapi.DoctorProfile, error)
}

// AvailabilityService returns bookable slots for a doctor and date.
type AvailabilityService interface {
	AvailableSlots(ctx context.Context, doctorID int64, date string) ([]clinicapi.Slot, error)
}

// BookingService persists a reservation.
type BookingService interface {
	CreateBooking(ctx context.Context, req clinicapi.BookingRequest) (*clinicapi.BookingConfirmation, error)
}

// SlotState tracks slot selection progress.
type SlotState int

const (
	// NoSlotsLoaded means no availability query has completed for the
	// current doctor and date.
	NoSlotsLoaded SlotState = iota
	// SlotsLoaded means a query completed; the result may be empty, which is
	// a "no slots available" display state, not an error.
	SlotsLoaded
	// SlotSelected means the user picked one slot from the loaded set.
	SlotSelected
)

func (s SlotState) String() string {
	switch s {
	case NoSlotsLoaded:
		return "no_slots_loaded"
	case SlotsLoaded:
		return "slots_loaded"
	case SlotSelected:
		return "slot_selected"
	default:
		return "unknown"
	}
}

var (
	// ErrStaleLoad is returned when an availability response arrives after
	// the workflow moved on (new query or abandonment). The response must be
	// discarded, never applied.
	ErrStaleLoad = errors.New("workflow: availability response superseded")
	// ErrSubmissionInFlight guards against double submission: at most one
	// booking request may be outstanding per workflow instance.
	ErrSubmissionInFlight = errors.New("workflow: booking submission already in flight")
	// ErrLastDependent is returned when removing would leave the dependent
	// list empty; one entry must always remain visible.
	ErrLastDependent = errors.New("workflow: at least one dependent entry must remain")
	// ErrSlotNotOffered is returned when a selection is not part of the most
	// recently fetched slot set.
	ErrSlotNotOffered = errors.New("workflow: slot is not in the loaded availability")
)

// Workflow is one booking attempt. All state is owned by this instance; there
// is no cross-instance sharing and nothing is persisted.
type Workflow struct {
	directory    DirectoryService
	availability AvailabilityService
	bookings     BookingService
	logger       *logging.Logger

	mu           sync.Mutex
	doctor       *clinicapi.Doctor
	date         string
	dependents   []string
	state        SlotState
	slots        []clinicapi.Slot
	selected     clinicapi.Slot
	hasSelection bool
	loadGen      uint64
	inFlight     bool
}

// New creates a workflow. The dependent list starts with one blank entry,
// mirroring the booking form.
func New(directory DirectoryService, availability AvailabilityService, bookings BookingService, logger *logging.Logger) *Workflow {
	if logger == nil {
		logger = logging.Default()
	}
	return &Workflow{
		directory:    directory,
		availability: availability,
		bookings:     bookings,
		logger:       logger,
		dependents:   []string{""},
	}
}

// BrowseDoctors returns the current directory. On failure it degrades to an
// empty list alongside the error so the caller renders an empty state with a
// notice instead of crashing.
func (w *Workflow) BrowseDoctors(ctx context.Context) ([]clinicapi.Doctor, error) {
	doctors, err := w.directory.ListDoctors(ctx)
	if err != nil {
		w.logger.Warn("doctor directory unavailable", "error", err)
		return []clinicapi.Doctor{}, err
	}
	return doctors, nil
}

// DoctorProfile fetches the full profile for display.
func (w *Workflow) DoctorProfile(ctx context.Context, doctorID int64) (*clinicapi.DoctorProfile, error) {
	return w.directory.GetDoctor(ctx, doctorID)
}

// SelectDoctor fixes the doctor for this attempt and resets slot state.
// Entered dependents survive a doctor change.
func (w *Workflow) SelectDoctor(doctor clinicapi.Doctor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doctor = &doctor
	w.resetSlotsLocked()
}

// Doctor returns the selected doctor, if any.
func (w *Workflow) Doctor() (clinicapi.Doctor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doctor == nil {
		return clinicapi.Doctor{}, false
	}
	return *w.doctor, true
}

// SetDate records the calendar date for the availability query.
func (w *Workflow) SetDate(date string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.date = date
}

// Date returns the entered date.
func (w *Workflow) Date() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.date
}

// LoadSlots queries availability for the selected doctor and entered date.
// A blank date is rejected locally and never reaches the network. A new query
// always clears any prior selection; a response superseded by a newer query
// or by Abandon is discarded with ErrStaleLoad.
func (w *Workflow) LoadSlots(ctx context.Context) ([]clinicapi.Slot, error) {
	w.mu.Lock()
	if w.doctor == nil {
		w.mu.Unlock()
		return nil, clinicapi.NewValidationError("no doctor selected")
	}
	if strings.TrimSpace(w.date) == "" {
		w.mu.Unlock()
		return nil, clinicapi.NewValidationError("a date is required to look up available slots")
	}
	w.loadGen++
	gen := w.loadGen
	doctorID := w.doctor.ID
	date := w.date
	w.mu.Unlock()

	slots, err := w.availability.AvailableSlots(ctx, doctorID, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.loadGen {
		return nil, ErrStaleLoad
	}
	if err != nil {
		w.resetSlotsLocked()
		return nil, err
	}
	w.slots = slots
	w.hasSelection = false
	w.state = SlotsLoaded
	return append([]clinicapi.Slot(nil), slots...), nil
}

// SelectSlot picks one slot from the loaded set. Selection is keyed by the
// (start, end) pair; choosing a slot outside the most recent fetch fails.
// Selecting again simply replaces the previous choice.
func (w *Workflow) SelectSlot(slot clinicapi.Slot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == NoSlotsLoaded {
		return ErrSlotNotOffered
	}
	for _, s := range w.slots {
		if s == slot {
			w.selected = slot
			w.hasSelection = true
			w.state = SlotSelected
			return nil
		}
	}
	return ErrSlotNotOffered
}

// SelectedSlot returns the current selection, if any.
func (w *Workflow) SelectedSlot() (clinicapi.Slot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected, w.hasSelection
}

// Slots returns the most recently loaded slot set.
func (w *Workflow) Slots() []clinicapi.Slot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]clinicapi.Slot(nil), w.slots...)
}

// State returns the slot-selection state.
func (w *Workflow) State() SlotState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Abandon marks the workflow as dismissed. Any in-flight availability
// response arriving afterwards is discarded.
func (w *Workflow) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadGen++
}

func (w *Workflow) resetSlotsLocked() {
	w.slots = nil
	w.hasSelection = false
	w.state = NoSlotsLoaded
}
