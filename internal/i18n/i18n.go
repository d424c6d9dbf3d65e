// Package i18n is the process-wide localization provider. Screens used to
// carry their own inline string tables and language toggles; this centralizes
// them behind one injectable lookup keyed by language code.
package i18n

import "sync"

// Languages supported by the app.
const (
	LangEnglish = "en"
	LangSpanish = "es"
	LangFrench  = "fr"
	LangUrdu    = "ur"
)

// Provider resolves UI strings by key for one language, falling back to
// English and finally to the key itself so a missing translation never blanks
// the UI.
type Provider struct {
	mu   sync.RWMutex
	lang string
}

// New creates a provider for the given language code. Unknown codes behave
// as English.
func New(lang string) *Provider {
	return &Provider{lang: lang}
}

// SetLanguage switches the active language.
func (p *Provider) SetLanguage(lang string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lang = lang
}

// Language returns the active language code.
func (p *Provider) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang
}

// T returns the string for key in the active language.
func (p *Provider) T(key string) string {
	p.mu.RLock()
	lang := p.lang
	p.mu.RUnlock()

	if table, ok := tables[lang]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := tables[LangEnglish][key]; ok {
		return s
	}
	return key
}

var tables = map[string]map[string]string{
	LangEnglish: {
		"login.title":            "Login",
		"login.mobile_required":  "Mobile number is required",
		"login.otp_sent":         "OTP sent successfully. Please check your phone.",
		"booking.title":          "Book an Appointment",
		"booking.no_doctors":     "No doctors are currently available",
		"booking.no_slots":       "No slots available",
		"booking.date_prompt":    "Date (YYYY-MM-DD)",
		"booking.date_required":  "Please enter a valid date",
		"booking.child_required": "Please add or select a child",
		"booking.slot_required":  "Please select a time slot",
		"booking.success":        "Your slot has been successfully booked!",
		"booking.failed":         "Failed to book the slot",
	},
	LangSpanish: {
		"login.title":            "Iniciar sesión",
		"booking.title":          "Reservar una cita",
		"booking.no_slots":       "No hay horarios disponibles",
		"booking.child_required": "Por favor agregue o seleccione un niño",
		"booking.slot_required":  "Por favor seleccione un horario",
		"booking.success":        "¡Su cita ha sido reservada con éxito!",
	},
	LangFrench: {
		"login.title":           "Connexion",
		"booking.title":         "Prendre rendez-vous",
		"booking.no_slots":      "Aucun créneau disponible",
		"booking.slot_required": "Veuillez sélectionner un créneau",
		"booking.success":       "Votre rendez-vous a été réservé avec succès !",
	},
	LangUrdu: {
		"login.title":      "لاگ ان",
		"booking.title":    "ملاقات بک کریں",
		"booking.no_slots": "کوئی سلاٹ دستیاب نہیں",
		"booking.success":  "آپ کا سلاٹ کامیابی سے بک ہو گیا ہے!",
	},
}

var (
	defaultMu sync.RWMutex
	std       = New(LangEnglish)
)

// SetDefault switches the process-wide provider's language.
func SetDefault(lang string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	std.SetLanguage(lang)
}

// Default returns the process-wide provider.
func Default() *Provider {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return std
}

// T resolves key against the process-wide provider.
func T(key string) string {
	return Default().T(key)
}
