package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticCreds struct {
	token  string
	userID int64
}

func (s staticCreds) AccessToken() (string, error) { return s.token, nil }
func (s staticCreds) UserID() (int64, error)       { return s.userID, nil }

func TestListDoctors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doctors/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"doctors": []map[string]any{
				{"id": 1, "name": "Dr. A", "specialty": "Pediatrics", "is_available": true, "profile_photo": "/media/a.jpg"},
			},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	doctors, err := c.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("ListDoctors error: %v", err)
	}
	if len(doctors) != 1 || doctors[0].Name != "Dr. A" || !doctors[0].IsAvailable {
		t.Fatalf("unexpected doctors: %+v", doctors)
	}
}

func TestListDoctorsEmptyDirectory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"doctors": []any{}})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	doctors, err := c.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("an empty directory is not an error, got: %v", err)
	}
	if len(doctors) != 0 {
		t.Fatalf("expected no doctors, got %+v", doctors)
	}
}

func TestGetDoctorProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doctors/3" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 3, "name": "Dr. C", "specialty": "Cardiology",
			"hospital_name": "Al Noor", "location": map[string]any{"city": "Dubai"},
			"languages":       []map[string]any{{"language": "English"}, {"language": "Arabic"}},
			"digital_consult": true,
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	profile, err := c.GetDoctor(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetDoctor error: %v", err)
	}
	if profile.HospitalName != "Al Noor" || profile.Location.City != "Dubai" || len(profile.Languages) != 2 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if !profile.DigitalConsult {
		t.Fatal("expected digital consult flag")
	}
}

func TestAvailableSlots(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doctors/1/available_slots/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("selected_date"); got != "2024-11-21" {
			t.Fatalf("unexpected selected_date: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"available_slots": []map[string]any{{"start": "09:00", "end": "09:30"}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	slots, err := c.AvailableSlots(context.Background(), 1, "2024-11-21")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	if len(slots) != 1 || slots[0] != (Slot{Start: "09:00", End: "09:30"}) {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestAvailableSlotsBlankDateNeverHitsNetwork(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	for _, date := range []string{"", "   "} {
		if _, err := c.AvailableSlots(context.Background(), 1, date); !IsValidation(err) {
			t.Fatalf("date %q: expected validation error, got %v", date, err)
		}
	}
	if hits != 0 {
		t.Fatalf("expected no requests, server saw %d", hits)
	}
}

func TestCreateBookingWirePayload(t *testing.T) {
	var got map[string]any
	var authHeader, idemKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/book-slot/" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		idemKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 200, "doctor": 1, "date": "2024-11-21",
			"slot_start": "09:00", "slot_end": "09:30",
			"children_names": []string{"Ali"},
			"message":        "Your slot has been successfully booked!",
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, staticCreds{token: "tok", userID: 42}, nil, nil)
	confirmation, err := c.CreateBooking(context.Background(), BookingRequest{
		DoctorID:      1,
		Date:          "2024-11-21",
		Slot:          Slot{Start: "09:00", End: "09:30"},
		ChildrenNames: []string{"Ali"},
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}

	if authHeader != "Bearer tok" {
		t.Errorf("unexpected Authorization header: %q", authHeader)
	}
	if idemKey == "" {
		t.Error("expected an Idempotency-Key header")
	}
	if got["doctor"] != float64(1) || got["user"] != float64(42) {
		t.Errorf("unexpected doctor/user: %v / %v", got["doctor"], got["user"])
	}
	// children_names travels as a JSON-encoded array inside a string field.
	if got["children_names"] != `["Ali"]` {
		t.Errorf("unexpected children_names: %v", got["children_names"])
	}
	if got["slot_start"] != "09:00" || got["slot_end"] != "09:30" || got["date"] != "2024-11-21" {
		t.Errorf("unexpected slot/date fields: %v", got)
	}
	if confirmation.ID != 200 || confirmation.Message == "" {
		t.Errorf("unexpected confirmation: %+v", confirmation)
	}
}

func TestCreateBookingWithoutCredentials(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	_, err := c.CreateBooking(context.Background(), BookingRequest{DoctorID: 1})
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("unauthenticated booking must not reach the network, server saw %d", hits)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "slot taken"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, staticCreds{token: "tok", userID: 42}, nil, nil)
	_, err := c.CreateBooking(context.Background(), BookingRequest{
		DoctorID:      1,
		Date:          "2024-11-21",
		Slot:          Slot{Start: "09:00", End: "09:30"},
		ChildrenNames: []string{"Ali"},
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if UserMessage(err) != "slot taken" {
		t.Fatalf("server detail must surface verbatim, got %q", UserMessage(err))
	}
}

func TestLoginAndVerifyOTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login/":
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Please check your phone"})
		case "/verify-otp/":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["otp"] != "1234" {
				t.Fatalf("unexpected otp: %q", body["otp"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "refresh_token": "rt"})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, nil, nil)
	msg, err := c.Login(context.Background(), "0501234567", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if msg != "Please check your phone" {
		t.Fatalf("unexpected message: %q", msg)
	}

	pair, err := c.VerifyOTP(context.Background(), "0501234567", "1234")
	if err != nil {
		t.Fatalf("VerifyOTP error: %v", err)
	}
	if pair.AccessToken != "at" || pair.RefreshToken != "rt" {
		t.Fatalf("unexpected token pair: %+v", pair)
	}
}

func TestLoginValidatesLocally(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil, nil, nil)
	if _, err := c.Login(context.Background(), "", "pw"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.Login(context.Background(), "0501234567", ""); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListChildrenSendsBearer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Ali", "date_of_birth": "2019-03-02", "gender": "male"},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, staticCreds{token: "tok", userID: 42}, nil, nil)
	children, err := c.ListChildren(context.Background())
	if err != nil {
		t.Fatalf("ListChildren error: %v", err)
	}
	if len(children) != 1 || children[0].Name != "Ali" {
		t.Fatalf("unexpected children: %+v", children)
	}
}

func TestNetworkFailureIsNetworkKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	c := NewClient(ts.URL, nil, nil, nil)
	_, err := c.ListDoctors(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}
