// Package clinicapi is the HTTP client for the clinic backend. It covers the
// doctor directory, availability lookup, booking submission, and the
// account/children/telemedicine/sick-leave surface around them.
//
// All failures are normalized through one error-decoding boundary (errors.go)
// so callers can branch on error kind instead of response shape.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/curelinehq/pedibook/internal/observability/metrics"
	"github.com/curelinehq/pedibook/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// CredentialSource supplies the stored session token and the user identity
// derived from it. The token is written once at login and read-only for the
// lifetime of a booking workflow.
type CredentialSource interface {
	// AccessToken returns the stored bearer token, or "" when logged out.
	AccessToken() (string, error)
	// UserID returns the user identity carried in the token's claims.
	UserID() (int64, error)
}

// Client talks to the clinic backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
	tracer      trace.Tracer
}

// NewClient creates a clinic API client. credentials may be nil for flows that
// only use unauthenticated endpoints; m may be nil to disable metrics.
func NewClient(baseURL string, credentials CredentialSource, m *metrics.BookingMetrics, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		credentials: credentials,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("clinicapi"),
	}
}

// SetHTTPClient overrides the underlying HTTP client. Tests use this to
// shorten timeouts.
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// ListDoctors returns the current doctor directory. An empty directory is a
// valid result, not an error.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out doctorsResponse
	if err := c.do(ctx, request{op: "list_doctors", method: http.MethodGet, path: "/doctors/"}, &out); err != nil {
		return nil, err
	}
	return out.Doctors, nil
}

// GetDoctor returns the full profile for one doctor.
func (c *Client) GetDoctor(ctx context.Context, doctorID int64) (*DoctorProfile, error) {
	var out DoctorProfile
	err := c.do(ctx, request{
		op:     "get_doctor",
		method: http.MethodGet,
		path:   fmt.Sprintf("/doctors/%d", doctorID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableSlots returns bookable slots for a doctor on a calendar date.
// An empty or blank date is rejected locally and never reaches the network.
func (c *Client) AvailableSlots(ctx context.Context, doctorID int64, date string) ([]Slot, error) {
	if strings.TrimSpace(date) == "" {
		return nil, NewValidationError("a date is required to look up available slots")
	}
	query := url.Values{"selected_date": {date}}
	var out slotsResponse
	err := c.do(ctx, request{
		op:     "available_slots",
		method: http.MethodGet,
		path:   fmt.Sprintf("/doctors/%d/available_slots/", doctorID),
		query:  query,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.AvailableSlots, nil
}

// CreateBooking submits a booking. The requesting user is taken from the
// session token; children_names travels as a JSON-encoded array in a string
// field per the backend contract. Each call carries a fresh Idempotency-Key
// so a retried submit cannot double-book.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	userID, err := c.requireUserID()
	if err != nil {
		return nil, err
	}
	names, err := json.Marshal(req.ChildrenNames)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: marshal children names: %w", err)
	}

	payload := bookingPayload{
		Doctor:        req.DoctorID,
		User:          userID,
		ChildrenNames: string(names),
		SlotStart:     req.Slot.Start,
		SlotEnd:       req.Slot.End,
		Date:          req.Date,
	}

	var out BookingConfirmation
	err = c.do(ctx, request{
		op:             "create_booking",
		method:         http.MethodPost,
		path:           "/book-slot/",
		body:           payload,
		authed:         true,
		idempotencyKey: uuid.NewString(),
	}, &out)
	if err != nil {
		c.observeBooking("error")
		return nil, err
	}
	c.observeBooking("confirmed")
	return &out, nil
}

// Login sends credentials and triggers an OTP to the user's phone. The
// returned message is the server's delivery notice.
func (c *Client) Login(ctx context.Context, identifier, password string) (string, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return "", NewValidationError("mobile number and password are required")
	}
	body := map[string]string{"identifier": identifier, "password": password}
	var out messageResponse
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/login/", body: body}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyOTP exchanges the one-time code for a token pair.
func (c *Client) VerifyOTP(ctx context.Context, identifier, otp string) (*TokenPair, error) {
	if strings.TrimSpace(otp) == "" {
		return nil, NewValidationError("the one-time code is required")
	}
	body := map[string]string{"identifier": identifier, "otp": otp}
	var out TokenPair
	if err := c.do(ctx, request{op: "verify_otp", method: http.MethodPost, path: "/verify-otp/", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new parent account and triggers an OTP.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out messageResponse
	if err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/register/", body: req}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ListChildren returns the children on the account.
func (c *Client) ListChildren(ctx context.Context) ([]Child, error) {
	var out []Child
	if err := c.do(ctx, request{op: "list_children", method: http.MethodGet, path: "/children/", authed: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddChild creates a child record on the account.
func (c *Client) AddChild(ctx context.Context, child Child) (*Child, error) {
	var out Child
	err := c.do(ctx, request{
		op:     "add_child",
		method: http.MethodPost,
		path:   "/api/children/",
		body:   child,
		authed: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChild returns one child record.
func (c *Client) GetChild(ctx context.Context, childID int64) (*Child, error) {
	var out Child
	err := c.do(ctx, request{
		op:     "get_child",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/children/%d/", childID),
		authed: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings returns the account's booking history.
func (c *Client) ListBookings(ctx context.Context) ([]BookingRecord, error) {
	var out bookingsResponse
	if err := c.do(ctx, request{op: "list_bookings", method: http.MethodGet, path: "/api/user/bookings/", authed: true}, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// CreateTeleSession requests a telemedicine consult with a doctor.
func (c *Client) CreateTeleSession(ctx context.Context, doctorID int64) (*TeleSession, error) {
	body := map[string]int64{"doctor_id": doctorID}
	var out TeleSession
	err := c.do(ctx, request{
		op:     "create_tele_session",
		method: http.MethodPost,
		path:   "/create-tele-doctor/",
		body:   body,
		authed: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitParentSickLeave files a parent sick-leave request. The user field of
// the wire payload comes from the session token.
func (c *Client) SubmitParentSickLeave(ctx context.Context, req ParentSickLeaveRequest) error {
	userID, err := c.requireUserID()
	if err != nil {
		return err
	}
	payload := struct {
		User int64 `json:"user"`
		ParentSickLeaveRequest
	}{User: userID, ParentSickLeaveRequest: req}

	var out messageResponse
	return c.do(ctx, request{
		op:     "parent_sick_leave",
		method: http.MethodPost,
		path:   "/api/parent-sick-leave/",
		body:   payload,
		authed: true,
	}, &out)
}

// GetProfile returns the account holder's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, request{op: "get_profile", method: http.MethodGet, path: "/api/profile/", authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves profile edits.
func (c *Client) UpdateProfile(ctx context.Context, profile Profile) error {
	var out messageResponse
	return c.do(ctx, request{
		op:     "update_profile",
		method: http.MethodPut,
		path:   "/api/profile/",
		body:   profile,
		authed: true,
	}, &out)
}

// ListBanners returns the dashboard banners.
func (c *Client) ListBanners(ctx context.Context) ([]Banner, error) {
	var out bannersResponse
	if err := c.do(ctx, request{op: "list_banners", method: http.MethodGet, path: "/api/banners/"}, &out); err != nil {
		return nil, err
	}
	return out.Banners, nil
}

// request describes one API call for the shared do helper.
type request struct {
	op             string
	method         string
	path           string
	query          url.Values
	body           any
	authed         bool
	idempotencyKey string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := c.tracer.Start(ctx, "clinicapi."+r.op)
	defer span.End()

	start := time.Now()
	status, err := c.doOnce(ctx, r, out)
	c.observeRequest(r.op, status, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.logger.Warn("clinic API call failed",
			"op", r.op,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, r request, out any) (int, error) {
	var bodyReader io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return 0, fmt.Errorf("clinicapi: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("clinicapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.idempotencyKey)
	}
	if r.authed {
		token, err := c.requireToken()
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, newNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("clinicapi: unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) requireToken() (string, error) {
	if c.credentials == nil {
		return "", newAuthError("not logged in", nil)
	}
	token, err := c.credentials.AccessToken()
	if err != nil {
		return "", newAuthError("could not read stored credentials", err)
	}
	if token == "" {
		return "", newAuthError("not logged in", nil)
	}
	return token, nil
}

func (c *Client) requireUserID() (int64, error) {
	if c.credentials == nil {
		return 0, newAuthError("not logged in", nil)
	}
	userID, err := c.credentials.UserID()
	if err != nil {
		return 0, newAuthError("session token does not identify a user", err)
	}
	return userID, nil
}

func (c *Client) observeRequest(op string, status int, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	label := "error"
	if status >= 200 && status < 300 {
		label = "ok"
	} else if status != 0 {
		label = strconv.Itoa(status)
	}
	c.metrics.ObserveRequest(op, label, elapsed.Seconds())
}

func (c *Client) observeBooking(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveBooking(outcome)
}
