// Package clinictest is an in-memory clinic backend used by the end-to-end
// tests and the mockclinic binary. It implements the same routes and error
// payloads as the production backend, including slot conflicts on
// double-booking.
package clinictest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/curelinehq/pedibook/internal/clinicapi"
)

const (
	signingSecret = "clinictest-secret"
	validOTP      = "1234"
)

// Server holds the fake backend's state. All fields are guarded by mu; tests
// mutate state only through the exported methods.
type Server struct {
	mu sync.Mutex

	doctors  []clinicapi.Doctor
	profiles map[int64]clinicapi.DoctorProfile
	slots    map[string][]clinicapi.Slot
	booked   map[string]bool
	children []clinicapi.Child
	bookings []clinicapi.BookingRecord
	banners  []clinicapi.Banner

	nextBookingID int64
	nextChildID   int64
	nextUserID    int64
}

// New creates an empty fake backend.
func New() *Server {
	return &Server{
		profiles:      map[int64]clinicapi.DoctorProfile{},
		slots:         map[string][]clinicapi.Slot{},
		booked:        map[string]bool{},
		nextBookingID: 200,
		nextChildID:   1,
		nextUserID:    1,
	}
}

// SeedDoctor adds a doctor to the directory.
func (s *Server) SeedDoctor(profile clinicapi.DoctorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = append(s.doctors, profile.Doctor)
	s.profiles[profile.ID] = profile
}

// SeedSlots sets the availability for a doctor on a date.
func (s *Server) SeedSlots(doctorID int64, date string, slots []clinicapi.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[availabilityKey(doctorID, date)] = slots
}

// SeedChild adds a child record.
func (s *Server) SeedChild(child clinicapi.Child) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if child.ID == 0 {
		child.ID = s.nextChildID
		s.nextChildID++
	}
	s.children = append(s.children, child)
}

// SeedBanner adds a dashboard banner.
func (s *Server) SeedBanner(banner clinicapi.Banner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners = append(s.banners, banner)
}

// MarkBooked pre-claims a slot so the next booking attempt conflicts.
func (s *Server) MarkBooked(doctorID int64, date string, slot clinicapi.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booked[bookedKey(doctorID, date, slot)] = true
}

// Bookings returns the bookings received so far.
func (s *Server) Bookings() []clinicapi.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clinicapi.BookingRecord(nil), s.bookings...)
}

// IssueToken signs a session token for the given user, as the backend would
// after OTP verification.
func IssueToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
}

// Handler returns the HTTP surface of the fake backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/login/", s.handleLogin)
	r.Post("/verify-otp/", s.handleVerifyOTP)
	r.Post("/register/", s.handleRegister)

	r.Get("/doctors/", s.handleListDoctors)
	r.Get("/doctors/{doctorID}", s.handleGetDoctor)
	r.Get("/doctors/{doctorID}/available_slots/", s.handleAvailableSlots)

	r.Group(func(authed chi.Router) {
		authed.Use(requireSession)
		authed.Post("/book-slot/", s.handleBookSlot)
		authed.Get("/children/", s.handleListChildren)
		authed.Post("/api/children/", s.handleAddChild)
		authed.Get("/api/children/{childID}/", s.handleGetChild)
		authed.Get("/api/user/bookings/", s.handleListBookings)
		authed.Post("/create-tele-doctor/", s.handleCreateTeleSession)
		authed.Post("/api/parent-sick-leave/", s.handleParentSickLeave)
		authed.Get("/api/profile/", s.handleGetProfile)
		authed.Put("/api/profile/", s.handleUpdateProfile)
	})

	r.Get("/api/banners/", s.handleListBanners)

	return r
}

// requireSession verifies the bearer token the way the backend does.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(signingSecret), nil
		})
		if err != nil || !token.Valid {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Identifier == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Please check your phone"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OTP != validOTP {
		writeMessage(w, http.StatusBadRequest, "invalid one-time code")
		return
	}
	s.mu.Lock()
	userID := s.nextUserID
	s.nextUserID++
	s.mu.Unlock()

	token, err := IssueToken(userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  token,
		"refresh_token": "refresh-" + strconv.FormatInt(userID, 10),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body clinicapi.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PhoneNumber == "" {
		writeMessage(w, http.StatusBadRequest, "phone number is required")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "OTP is sent to your mobile number"})
}

func (s *Server) handleListDoctors(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	doctors := append([]clinicapi.Doctor{}, s.doctors...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

func (s *Server) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	s.mu.Lock()
	profile, ok := s.profiles[doctorID]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "doctor not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	date := r.URL.Query().Get("selected_date")
	if date == "" {
		writeMessage(w, http.StatusBadRequest, "selected_date is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[doctorID]; !ok {
		writeMessage(w, http.StatusNotFound, "doctor not found")
		return
	}
	open := make([]clinicapi.Slot, 0)
	for _, slot := range s.slots[availabilityKey(doctorID, date)] {
		if !s.booked[bookedKey(doctorID, date, slot)] {
			open = append(open, slot)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"available_slots": open})
}

func (s *Server) handleBookSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Doctor        int64  `json:"doctor"`
		User          int64  `json:"user"`
		ChildrenNames string `json:"children_names"`
		SlotStart     string `json:"slot_start"`
		SlotEnd       string `json:"slot_end"`
		Date          string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid booking payload")
		return
	}
	var names []string
	if err := json.Unmarshal([]byte(body.ChildrenNames), &names); err != nil || len(names) == 0 {
		writeMessage(w, http.StatusBadRequest, "children_names must be a non-empty list")
		return
	}

	slot := clinicapi.Slot{Start: body.SlotStart, End: body.SlotEnd}

	s.mu.Lock()
	defer s.mu.Unlock()

	offered := false
	for _, candidate := range s.slots[availabilityKey(body.Doctor, body.Date)] {
		if candidate == slot {
			offered = true
			break
		}
	}
	if !offered {
		writeMessage(w, http.StatusBadRequest, "slot is not offered on this date")
		return
	}
	key := bookedKey(body.Doctor, body.Date, slot)
	if s.booked[key] {
		writeMessage(w, http.StatusConflict, "slot taken")
		return
	}
	s.booked[key] = true

	bookingID := s.nextBookingID
	s.nextBookingID++

	doctorName := ""
	if profile, ok := s.profiles[body.Doctor]; ok {
		doctorName = profile.Name
	}
	s.bookings = append(s.bookings, clinicapi.BookingRecord{
		ID:            bookingID,
		DoctorName:    doctorName,
		Date:          body.Date,
		SlotStart:     slot.Start,
		SlotEnd:       slot.End,
		ChildrenNames: names,
		Status:        "confirmed",
	})

	writeJSON(w, http.StatusCreated, clinicapi.BookingConfirmation{
		ID:            bookingID,
		DoctorID:      body.Doctor,
		Date:          body.Date,
		SlotStart:     slot.Start,
		SlotEnd:       slot.End,
		ChildrenNames: names,
		Message:       "Your slot has been successfully booked!",
	})
}

func (s *Server) handleListChildren(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	children := append([]clinicapi.Child{}, s.children...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var child clinicapi.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil || child.Name == "" {
		writeMessage(w, http.StatusBadRequest, "child name is required")
		return
	}
	s.mu.Lock()
	child.ID = s.nextChildID
	s.nextChildID++
	s.children = append(s.children, child)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, child)
}

func (s *Server) handleGetChild(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseInt(chi.URLParam(r, "childID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid child id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, child := range s.children {
		if child.ID == childID {
			writeJSON(w, http.StatusOK, child)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "child not found")
}

func (s *Server) handleListBookings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	bookings := append([]clinicapi.BookingRecord{}, s.bookings...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleCreateTeleSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DoctorID int64 `json:"doctor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "doctor_id is required")
		return
	}
	s.mu.Lock()
	_, known := s.profiles[body.DoctorID]
	s.mu.Unlock()
	if !known {
		writeMessage(w, http.StatusNotFound, "doctor not found")
		return
	}
	writeJSON(w, http.StatusCreated, clinicapi.TeleSession{
		ID:       1,
		DoctorID: body.DoctorID,
		Channel:  fmt.Sprintf("tele-%d", body.DoctorID),
		Message:  "The doctor will contact you shortly",
	})
}

func (s *Server) handleParentSickLeave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User      int64  `json:"user"`
		ChildName string `json:"child_name"`
		SentTo    string `json:"sent_to"`
		Sender    string `json:"sender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.User == 0 {
		writeMessage(w, http.StatusBadRequest, "user is required")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Sick leave applied successfully"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, clinicapi.Profile{
		Email: "parent@example.com",
		User: clinicapi.ProfileUser{
			FirstName:   "Test",
			LastName:    "Parent",
			PhoneNumber: "0501234567",
		},
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile clinicapi.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid profile payload")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

func (s *Server) handleListBanners(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	banners := append([]clinicapi.Banner{}, s.banners...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"banners": banners})
}

func availabilityKey(doctorID int64, date string) string {
	return fmt.Sprintf("%d|%s", doctorID, date)
}

func bookedKey(doctorID int64, date string, slot clinicapi.Slot) string {
	return fmt.Sprintf("%d|%s|%s|%s", doctorID, date, slot.Start, slot.End)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
