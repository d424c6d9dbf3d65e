// pedibook is the terminal client for the clinic: log in with phone + OTP,
// browse the doctor directory, check availability for a date, and book a slot
// for one or more children. Session tokens are kept in a local credential
// file between runs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/curelinehq/pedibook/internal/auth"
	"github.com/curelinehq/pedibook/internal/clinicapi"
	"github.com/curelinehq/pedibook/internal/config"
	"github.com/curelinehq/pedibook/internal/i18n"
	"github.com/curelinehq/pedibook/internal/observability/metrics"
	"github.com/curelinehq/pedibook/internal/workflow"
	"github.com/curelinehq/pedibook/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	i18n.SetDefault(cfg.Language)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, clinicapi.UserMessage(err))
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	store := auth.NewStore(cfg.CredentialsPath)

	var m *metrics.BookingMetrics
	if cfg.MetricsEnabled {
		m = metrics.NewBookingMetrics(nil)
	}

	client := clinicapi.NewClient(cfg.APIBaseURL, store, m, logger)
	client.SetHTTPClient(&http.Client{Timeout: cfg.APITimeout})

	app := &app{
		client: client,
		store:  store,
		logger: logger,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	command := "book"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "book":
		return app.book(ctx)
	case "login":
		return app.login(ctx)
	case "register":
		return app.register(ctx)
	case "logout":
		return app.logout()
	case "doctors":
		return app.doctors(ctx)
	case "bookings":
		return app.bookings(ctx)
	case "children":
		return app.children(ctx)
	case "add-child":
		return app.addChild(ctx)
	case "profile":
		return app.profile(ctx)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage(w *os.File) {
	fmt.Fprintln(w, "usage: pedibook [command]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  book       book an appointment (default)")
	fmt.Fprintln(w, "  login      sign in with phone number and one-time code")
	fmt.Fprintln(w, "  register   create a parent account")
	fmt.Fprintln(w, "  logout     discard the stored session")
	fmt.Fprintln(w, "  doctors    browse the doctor directory")
	fmt.Fprintln(w, "  bookings   list past bookings")
	fmt.Fprintln(w, "  children   list children on the account")
	fmt.Fprintln(w, "  add-child  add a child to the account")
	fmt.Fprintln(w, "  profile    show the account profile")
}

type app struct {
	client *clinicapi.Client
	store  *auth.Store
	logger *logging.Logger
	in     *bufio.Reader
	out    *os.File
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) prompt(label string) string {
	a.printf("%s: ", label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptIndex asks for a 1-based choice until the answer is in range.
func (a *app) promptIndex(label string, n int) int {
	for {
		answer := a.prompt(fmt.Sprintf("%s [1-%d]", label, n))
		idx, err := strconv.Atoi(answer)
		if err == nil && idx >= 1 && idx <= n {
			return idx - 1
		}
		a.printf("Please enter a number between 1 and %d.\n", n)
	}
}

// ensureSession runs the login flow when no token is stored.
func (a *app) ensureSession(ctx context.Context) error {
	token, err := a.store.AccessToken()
	if err != nil {
		return err
	}
	if token != "" {
		return nil
	}
	a.printf("You are not logged in.\n")
	return a.login(ctx)
}

func (a *app) login(ctx context.Context) error {
	a.printf("%s\n", i18n.T("login.title"))

	phone := a.prompt("Mobile number")
	if phone == "" {
		return clinicapi.NewValidationError(i18n.T("login.mobile_required"))
	}
	password := a.prompt("Password")

	msg, err := a.client.Login(ctx, phone, password)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = i18n.T("login.otp_sent")
	}
	a.printf("%s\n", msg)

	otp := a.prompt("One-time code")
	pair, err := a.client.VerifyOTP(ctx, phone, otp)
	if err != nil {
		return err
	}
	if err := a.store.Save(auth.Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return err
	}
	a.printf("Logged in.\n")
	return nil
}

func (a *app) register(ctx context.Context) error {
	req := clinicapi.RegisterRequest{
		FirstName:   a.prompt("First name"),
		LastName:    a.prompt("Last name"),
		PhoneNumber: a.prompt("Mobile number"),
		IDNumber:    a.prompt("ID number"),
		Password:    a.prompt("Password"),
	}
	msg, err := a.client.Register(ctx, req)
	if err != nil {
		return err
	}
	if msg != "" {
		a.printf("%s\n", msg)
	}
	return a.login(ctx)
}

func (a *app) logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *app) doctors(ctx context.Context) error {
	doctors, err := a.client.ListDoctors(ctx)
	if err != nil {
		return err
	}
	if len(doctors) == 0 {
		a.printf("%s\n", i18n.T("booking.no_doctors"))
		return nil
	}
	for _, d := range doctors {
		availability := "available"
		if !d.IsAvailable {
			availability = "unavailable"
		}
		a.printf("%d  %s  (%s, %s)\n", d.ID, d.Name, d.Specialty, availability)
	}
	return nil
}

func (a *app) book(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	wf := workflow.New(a.client, a.client, a.client, a.logger)
	a.printf("%s\n", i18n.T("booking.title"))

	doctors, err := wf.BrowseDoctors(ctx)
	if err != nil {
		return err
	}
	if len(doctors) == 0 {
		a.printf("%s\n", i18n.T("booking.no_doctors"))
		return nil
	}
	for i, d := range doctors {
		a.printf("%d. %s (%s)\n", i+1, d.Name, d.Specialty)
	}
	wf.SelectDoctor(doctors[a.promptIndex("Doctor", len(doctors))])

	var slots []clinicapi.Slot
	for {
		wf.SetDate(a.prompt(i18n.T("booking.date_prompt")))
		slots, err = wf.LoadSlots(ctx)
		if clinicapi.IsValidation(err) {
			a.printf("%s\n", i18n.T("booking.date_required"))
			continue
		}
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			a.printf("%s\n", i18n.T("booking.no_slots"))
			continue
		}
		break
	}
	for i, s := range slots {
		a.printf("%d. %s - %s\n", i+1, s.Start, s.End)
	}
	if err := wf.SelectSlot(slots[a.promptIndex("Slot", len(slots))]); err != nil {
		return err
	}

	for i := 0; ; i++ {
		label := "Child name"
		if i > 0 {
			label = "Another child name (blank to finish)"
		}
		name := a.prompt(label)
		if name == "" && i > 0 {
			break
		}
		if name == "" {
			a.printf("%s\n", i18n.T("booking.child_required"))
			i--
			continue
		}
		if i > 0 {
			wf.AddDependent()
		}
		if err := wf.SetDependentName(i, name); err != nil {
			return err
		}
	}

	confirmation, err := wf.Submit(ctx)
	if err != nil {
		if clinicapi.IsConflict(err) {
			a.printf("%s: %s\n", i18n.T("booking.failed"), clinicapi.UserMessage(err))
			a.printf("The slot was taken while you were booking. Run again to pick another.\n")
			return nil
		}
		return err
	}

	a.printf("%s\n", i18n.T("booking.success"))
	a.printf("Booking #%d: %s (%s) on %s, %s - %s for %s\n",
		confirmation.BookingID,
		confirmation.DoctorName,
		confirmation.Specialty,
		confirmation.Date,
		confirmation.Slot.Start,
		confirmation.Slot.End,
		strings.Join(confirmation.ChildrenNames, ", "),
	)
	return nil
}

func (a *app) bookings(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	records, err := a.client.ListBookings(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.printf("No bookings yet.\n")
		return nil
	}
	for _, r := range records {
		a.printf("#%d  %s  %s %s-%s  %s  [%s]\n",
			r.ID, r.DoctorName, r.Date, r.SlotStart, r.SlotEnd,
			strings.Join(r.ChildrenNames, ", "), r.Status)
	}
	return nil
}

func (a *app) children(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	children, err := a.client.ListChildren(ctx)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		a.printf("No children on the account.\n")
		return nil
	}
	for _, c := range children {
		a.printf("%d  %s  born %s\n", c.ID, c.Name, c.DateOfBirth)
	}
	return nil
}

func (a *app) addChild(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	child := clinicapi.Child{
		Name:            a.prompt("Name"),
		DateOfBirth:     a.prompt("Date of birth (YYYY-MM-DD)"),
		Gender:          a.prompt("Gender"),
		InsuranceNumber: a.prompt("Insurance number (optional)"),
	}
	added, err := a.client.AddChild(ctx, child)
	if err != nil {
		return err
	}
	a.printf("Added %s (#%d).\n", added.Name, added.ID)
	return nil
}

func (a *app) profile(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	profile, err := a.client.GetProfile(ctx)
	if err != nil {
		return err
	}
	a.printf("%s %s\n", profile.User.FirstName, profile.User.LastName)
	a.printf("Phone: %s\n", profile.User.PhoneNumber)
	if profile.Email != "" {
		a.printf("Email: %s\n", profile.Email)
	}
	return nil
}
