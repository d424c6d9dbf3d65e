// mockclinic runs the in-memory clinic backend for local development: a
// doctor directory, per-date availability, and the booking/children/accounts
// surface, pre-seeded with a small dataset.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/curelinehq/pedibook/internal/clinicapi"
	"github.com/curelinehq/pedibook/internal/clinictest"
	"github.com/curelinehq/pedibook/internal/config"
	"github.com/curelinehq/pedibook/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	fake := clinictest.New()
	seed(fake)

	srv := &http.Server{
		Addr:         cfg.MockListenAddr,
		Handler:      fake.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("mock clinic listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down mock clinic...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("mock clinic stopped")
}

func seed(fake *clinictest.Server) {
	fake.SeedDoctor(clinicapi.DoctorProfile{
		Doctor: clinicapi.Doctor{
			ID: 1, Name: "Dr. Aisha Rahman", Specialty: "Pediatrics",
			IsAvailable: true, ProfilePhoto: "/media/doctors/aisha.jpg",
		},
		HospitalName:   "Sunrise Children's Hospital",
		Education:      "MBBS, FRCPCH",
		Location:       clinicapi.Location{City: "Dubai"},
		Languages:      []clinicapi.SpokenLanguage{{Language: "English"}, {Language: "Arabic"}},
		RegistrationID: "DHA-12345",
		DigitalConsult: true,
		HospitalVisit:  true,
	})
	fake.SeedDoctor(clinicapi.DoctorProfile{
		Doctor: clinicapi.Doctor{
			ID: 2, Name: "Dr. Omar Haddad", Specialty: "Pediatric Cardiology",
			IsAvailable: true, ProfilePhoto: "/media/doctors/omar.jpg",
		},
		HospitalName:  "Sunrise Children's Hospital",
		Location:      clinicapi.Location{City: "Dubai"},
		Languages:     []clinicapi.SpokenLanguage{{Language: "English"}},
		HospitalVisit: true,
	})

	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	morning := []clinicapi.Slot{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
		{Start: "10:00", End: "10:30"},
	}
	for _, doctorID := range []int64{1, 2} {
		fake.SeedSlots(doctorID, today, morning)
		fake.SeedSlots(doctorID, tomorrow, morning)
	}

	fake.SeedBanner(clinicapi.Banner{ID: 1, Image: "/media/banners/flu-season.jpg", Title: "Flu season check-ups"})
}
