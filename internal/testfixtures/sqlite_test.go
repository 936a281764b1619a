package testfixtures

import (
	"context"
	"testing"

	"github.com/example/job-tracker/internal/application"
)

func TestSQLiteHarnessSeedsRelatedRows(t *testing.T) {
	h := NewSQLiteHarness(t)

	user := h.SeedUser(t, WithUsername("harness"))
	season := h.SeedSeason(t, user.ID, WithSeasonName("Spring"))
	job := h.SeedJob(t, user.ID, season.ID, WithStatus(application.StatusOffer), WithSource("Referral"))

	if job.SeasonName != "Spring" || job.CurrentStatus != "Offer" {
		t.Fatalf("unexpected seeded job: %#v", job)
	}
	if job.Source == nil || *job.Source != "Referral" {
		t.Fatalf("expected source to be stored, got %v", job.Source)
	}

	active, err := h.Seasons.GetActiveSeason(context.Background(), user.ID)
	if err != nil || active.ID != season.ID {
		t.Fatalf("expected seeded season to be active, got %#v (%v)", active, err)
	}
}

func TestServiceFactoryOverHarness(t *testing.T) {
	h := NewSQLiteHarness(t)
	factory := NewServiceFactory()
	ctx := context.Background()

	hash, err := FastHashPassword("secret1")
	if err != nil {
		t.Fatalf("FastHashPassword failed: %v", err)
	}
	if err := application.VerifyPassword(hash, "secret1"); err != nil {
		t.Fatalf("expected fast hash to verify, got %v", err)
	}

	if factory.NewAuthManager(nil, nil) == nil || factory.NewTrackerService(nil, nil) == nil {
		t.Fatalf("expected services to be constructed")
	}
	if _, err := h.Storage.MigrationStatus(ctx); err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
}
