package clinicapi

// Doctor is one entry in the clinic directory. Doctors are server-owned:
// the client re-fetches, never mutates.
type Doctor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	IsAvailable  bool   `json:"is_available"`
	ProfilePhoto string `json:"profile_photo"`
}

// DoctorProfile is the full profile returned by the doctor-detail endpoint.
type DoctorProfile struct {
	Doctor
	Experience     string           `json:"experience"`
	About          string           `json:"about"`
	HospitalName   string           `json:"hospital_name"`
	Education      string           `json:"education"`
	Location       Location         `json:"location"`
	Languages      []SpokenLanguage `json:"languages"`
	RegistrationID string           `json:"registration_id"`
	DigitalConsult bool             `json:"digital_consult"`
	HospitalVisit  bool             `json:"hospital_visit"`
}

// Location is the practice location attached to a doctor profile.
type Location struct {
	City string `json:"city"`
}

// SpokenLanguage is one language entry on a doctor profile.
type SpokenLanguage struct {
	Language string `json:"language"`
}

// Slot is one bookable appointment window. Start and end are opaque
// time-of-day strings as returned by the availability endpoint; the pair is
// also the slot's selection key since the API assigns no slot id.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BookingRequest is the client-facing input for CreateBooking. The requesting
// user is not a field here: identity is always derived from the stored
// session token.
type BookingRequest struct {
	DoctorID      int64
	Date          string
	Slot          Slot
	ChildrenNames []string
}

// bookingPayload is the wire form of a booking. children_names is a
// JSON-encoded array carried as a string, matching the backend contract.
type bookingPayload struct {
	Doctor        int64  `json:"doctor"`
	User          int64  `json:"user"`
	ChildrenNames string `json:"children_names"`
	SlotStart     string `json:"slot_start"`
	SlotEnd       string `json:"slot_end"`
	Date          string `json:"date"`
}

// BookingConfirmation is the server's echo of a successful booking plus its
// assigned identifiers. It is the terminal artifact of one booking workflow.
type BookingConfirmation struct {
	ID            int64    `json:"id"`
	DoctorID      int64    `json:"doctor"`
	Date          string   `json:"date"`
	SlotStart     string   `json:"slot_start"`
	SlotEnd       string   `json:"slot_end"`
	ChildrenNames []string `json:"children_names"`
	Message       string   `json:"message"`
}

// Child is a persisted child record on the account.
type Child struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	DateOfBirth     string `json:"date_of_birth"`
	Gender          string `json:"gender"`
	InsuranceNumber string `json:"insurance_number,omitempty"`
}

// BookingRecord is one past booking from the medical-history endpoint.
type BookingRecord struct {
	ID            int64    `json:"id"`
	DoctorName    string   `json:"doctor_name"`
	Date          string   `json:"date"`
	SlotStart     string   `json:"slot_start"`
	SlotEnd       string   `json:"slot_end"`
	ChildrenNames []string `json:"children_names"`
	Status        string   `json:"status"`
}

// TokenPair is issued after OTP verification.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest creates a new parent account. Registration triggers an OTP
// to the given phone number.
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	IDNumber    string `json:"id_number"`
	Password    string `json:"password"`
}

// TeleSession is created when a telemedicine consult is requested.
type TeleSession struct {
	ID       int64  `json:"id"`
	DoctorID int64  `json:"doctor_id"`
	Channel  string `json:"channel"`
	Message  string `json:"message"`
}

// ParentSickLeaveRequest asks the clinic for a parent sick-leave certificate.
type ParentSickLeaveRequest struct {
	ChildName string `json:"child_name"`
	SentTo    string `json:"sent_to"`
	Sender    string `json:"sender"`
}

// Profile is the account holder's profile.
type Profile struct {
	Email string      `json:"email"`
	User  ProfileUser `json:"user"`
}

// ProfileUser is the nested user record inside Profile.
type ProfileUser struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// Banner is one dashboard banner.
type Banner struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
	Title string `json:"title"`
}

type doctorsResponse struct {
	Doctors []Doctor `json:"doctors"`
}

type slotsResponse struct {
	AvailableSlots []Slot `json:"available_slots"`
}

type bookingsResponse struct {
	Bookings []BookingRecord `json:"bookings"`
}

type bannersResponse struct {
	Banners []Banner `json:"banners"`
}

type messageResponse struct {
	Message string `json:"message"`
}
