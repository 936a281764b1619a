package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/persistence"
	"github.com/example/job-tracker/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates and reads users", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)

		created := h.SeedUser(t, testfixtures.WithUsername("alice"), testfixtures.WithUserEmail("alice@example.com"))
		if created.ID == 0 {
			t.Fatalf("expected assigned id")
		}

		byID, err := h.Users.GetUser(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if byID.Username != "alice" || byID.PasswordHash != created.PasswordHash || !byID.IsActive {
			t.Fatalf("unexpected user: %#v", byID)
		}
		if !byID.CreatedAt.Equal(created.CreatedAt) || byID.LastLogin != nil {
			t.Fatalf("unexpected timestamps: %#v", byID)
		}

		if _, err := h.Users.GetUserByUsername(ctx, "alice"); err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if _, err := h.Users.GetUserByEmail(ctx, "alice@example.com"); err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if _, err := h.Users.GetUser(ctx, created.ID+100); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		exists, err := h.Users.UsernameExists(ctx, "alice")
		if err != nil || !exists {
			t.Fatalf("expected username to exist, got %v (%v)", exists, err)
		}
		exists, err = h.Users.EmailExists(ctx, "bob@example.com")
		if err != nil || exists {
			t.Fatalf("expected email to be free, got %v (%v)", exists, err)
		}
	})

	t.Run("rejects duplicates without touching the existing row", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		original := h.SeedUser(t, testfixtures.WithUsername("taken"), testfixtures.WithUserEmail("taken@example.com"))

		dup := testfixtures.NewUserFixture(testfixtures.WithUsername("taken"), testfixtures.WithPasswordHash("other")).Persistence()
		if _, err := h.Users.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for username, got %v", err)
		}
		dup = testfixtures.NewUserFixture(testfixtures.WithUserEmail("taken@example.com")).Persistence()
		if _, err := h.Users.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for email, got %v", err)
		}

		stored, err := h.Users.GetUser(ctx, original.ID)
		if err != nil || stored.PasswordHash != original.PasswordHash {
			t.Fatalf("expected original row unchanged, got %#v (%v)", stored, err)
		}
	})

	t.Run("updates login, password and active flag", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		first := h.SeedUser(t)
		second := h.SeedUser(t)

		at := testfixtures.ReferenceTime().Add(time.Hour)
		if err := h.Users.UpdateLastLogin(ctx, first.ID, at); err != nil {
			t.Fatalf("UpdateLastLogin failed: %v", err)
		}
		if err := h.Users.UpdatePassword(ctx, first.ID, "new-hash"); err != nil {
			t.Fatalf("UpdatePassword failed: %v", err)
		}
		stored, err := h.Users.GetUser(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if stored.LastLogin == nil || !stored.LastLogin.Equal(at) || stored.PasswordHash != "new-hash" {
			t.Fatalf("unexpected updated user: %#v", stored)
		}

		if err := h.Users.DeactivateUser(ctx, second.ID); err != nil {
			t.Fatalf("DeactivateUser failed: %v", err)
		}
		active, err := h.Users.ListActiveUsers(ctx)
		if err != nil {
			t.Fatalf("ListActiveUsers failed: %v", err)
		}
		if len(active) != 1 || active[0].ID != first.ID {
			t.Fatalf("expected only the first user to be active, got %#v", active)
		}

		if err := h.Users.UpdatePassword(ctx, 9999, "x"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for missing user, got %v", err)
		}
	})
}

func TestSeasonRepository(t *testing.T) {
	t.Parallel()

	t.Run("keeps a single active season per owner", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		other := h.SeedUser(t)

		summerStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		fallStart := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
		summer := h.SeedSeason(t, owner.ID, testfixtures.WithSeasonName("Summer"), testfixtures.WithSeasonStart(summerStart))
		otherSeason := h.SeedSeason(t, other.ID)
		fall := h.SeedSeason(t, owner.ID, testfixtures.WithSeasonName("Fall"), testfixtures.WithSeasonStart(fallStart))

		active, err := h.Seasons.GetActiveSeason(ctx, owner.ID)
		if err != nil || active.ID != fall.ID {
			t.Fatalf("expected Fall to be active, got %#v (%v)", active, err)
		}

		storedSummer, err := h.Seasons.GetSeason(ctx, owner.ID, summer.ID)
		if err != nil {
			t.Fatalf("GetSeason failed: %v", err)
		}
		if storedSummer.IsActive || storedSummer.EndDate == nil || !storedSummer.EndDate.Equal(fallStart) {
			t.Fatalf("expected Summer to end when Fall started, got %#v", storedSummer)
		}

		if otherActive, err := h.Seasons.GetActiveSeason(ctx, other.ID); err != nil || otherActive.ID != otherSeason.ID {
			t.Fatalf("expected other owner's season untouched, got %#v (%v)", otherActive, err)
		}

		seasons, err := h.Seasons.ListSeasons(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListSeasons failed: %v", err)
		}
		if len(seasons) != 2 || seasons[0].ID != fall.ID || seasons[1].ID != summer.ID {
			t.Fatalf("expected newest first, got %#v", seasons)
		}
	})

	t.Run("hides seasons from other owners", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		intruder := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)

		if _, err := h.Seasons.GetSeason(ctx, intruder.ID, season.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := h.Seasons.DeleteSeason(ctx, intruder.ID, season.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on foreign delete, got %v", err)
		}
		if _, err := h.Seasons.GetSeason(ctx, owner.ID, season.ID); err != nil {
			t.Fatalf("expected season to survive, got %v", err)
		}
	})

	t.Run("ends the active season", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)

		endedAt := testfixtures.ReferenceTime().Add(72 * time.Hour)
		ended, err := h.Seasons.EndActiveSeason(ctx, owner.ID, endedAt)
		if err != nil {
			t.Fatalf("EndActiveSeason failed: %v", err)
		}
		if ended.ID != season.ID || ended.IsActive || ended.EndDate == nil || !ended.EndDate.Equal(endedAt) {
			t.Fatalf("unexpected ended season: %#v", ended)
		}
		if _, err := h.Seasons.GetActiveSeason(ctx, owner.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected no active season, got %v", err)
		}
		if _, err := h.Seasons.EndActiveSeason(ctx, owner.ID, endedAt); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound when nothing is active, got %v", err)
		}
	})

	t.Run("rejects duplicate names for one owner", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		h.SeedSeason(t, owner.ID, testfixtures.WithSeasonName("Spring"))

		dup := testfixtures.NewSeasonFixture(owner.ID, testfixtures.WithSeasonName("Spring")).Persistence()
		if _, err := h.Seasons.CreateActiveSeason(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		if _, err := h.Seasons.GetActiveSeason(ctx, owner.ID); err != nil {
			t.Fatalf("expected failed transition to keep the previous season active, got %v", err)
		}
	})

	t.Run("delete cascades to jobs", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)
		job := h.SeedJob(t, owner.ID, season.ID)

		if err := h.Seasons.DeleteSeason(ctx, owner.ID, season.ID); err != nil {
			t.Fatalf("DeleteSeason failed: %v", err)
		}
		if _, err := h.Jobs.GetJob(ctx, owner.ID, job.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected job to be deleted with its season, got %v", err)
		}
	})
}

func TestJobRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates jobs owned by the season owner", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		intruder := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID, testfixtures.WithSeasonName("Winter"))

		website := "https://acme.example"
		record := testfixtures.NewJobFixture(owner.ID, season.ID,
			testfixtures.WithRole("Backend Engineer"),
			testfixtures.WithCompany("Acme"),
		).Persistence()
		record.CompanyWebsite = &website

		job, err := h.Jobs.CreateJob(ctx, record)
		if err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		if job.UserID != owner.ID || job.SeasonName != "Winter" || job.CurrentStatus != "Applied" {
			t.Fatalf("unexpected job: %#v", job)
		}
		if job.CompanyWebsite == nil || *job.CompanyWebsite != website || job.Description != nil {
			t.Fatalf("unexpected optional fields: %#v", job)
		}
		if !job.AppliedDate.Equal(record.AppliedDate) {
			t.Fatalf("expected applied date %v, got %v", record.AppliedDate, job.AppliedDate)
		}

		foreign := testfixtures.NewJobFixture(intruder.ID, season.ID).Persistence()
		if _, err := h.Jobs.CreateJob(ctx, foreign); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for a season the caller does not own, got %v", err)
		}
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)

		record := testfixtures.NewJobFixture(owner.ID, season.ID, testfixtures.WithStatus("Ghosted")).Persistence()
		if _, err := h.Jobs.CreateJob(ctx, record); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("lists, filters and searches within a season", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)
		base := testfixtures.ReferenceTime()

		older := h.SeedJob(t, owner.ID, season.ID, testfixtures.WithCompany("Globex"), testfixtures.WithRole("SRE"),
			testfixtures.WithAppliedDate(base))
		newer := h.SeedJob(t, owner.ID, season.ID, testfixtures.WithCompany("Initech"), testfixtures.WithRole("Go Developer"),
			testfixtures.WithSource("LinkedIn"), testfixtures.WithAppliedDate(base.Add(48*time.Hour)),
			testfixtures.WithStatus(application.StatusOffer))
		tieA := h.SeedJob(t, owner.ID, season.ID, testfixtures.WithCompany("100%_Remote"), testfixtures.WithAppliedDate(base.Add(24*time.Hour)))
		tieB := h.SeedJob(t, owner.ID, season.ID, testfixtures.WithCompany("Hooli"), testfixtures.WithAppliedDate(base.Add(24*time.Hour)))

		all, err := h.Jobs.ListJobs(ctx, persistence.JobFilter{OwnerID: owner.ID, SeasonID: season.ID})
		if err != nil {
			t.Fatalf("ListJobs failed: %v", err)
		}
		wantOrder := []int64{newer.ID, tieA.ID, tieB.ID, older.ID}
		if len(all) != len(wantOrder) {
			t.Fatalf("expected %d jobs, got %d", len(wantOrder), len(all))
		}
		for i, id := range wantOrder {
			if all[i].ID != id {
				t.Fatalf("position %d: expected job %d, got %d", i, id, all[i].ID)
			}
		}

		offers, err := h.Jobs.ListJobs(ctx, persistence.JobFilter{OwnerID: owner.ID, SeasonID: season.ID, Status: "Offer"})
		if err != nil || len(offers) != 1 || offers[0].ID != newer.ID {
			t.Fatalf("expected only the offer, got %#v (%v)", offers, err)
		}

		searches := map[string][]int64{
			"INITECH":  {newer.ID},
			"linkedin": {newer.ID},
			"sre":      {older.ID},
			"100%":     {tieA.ID},
			"%":        {tieA.ID},
			"_remote":  {tieA.ID},
			"nothing":  nil,
		}
		for term, want := range searches {
			got, err := h.Jobs.ListJobs(ctx, persistence.JobFilter{OwnerID: owner.ID, SeasonID: season.ID, Search: term})
			if err != nil {
				t.Fatalf("search %q failed: %v", term, err)
			}
			if len(got) != len(want) {
				t.Fatalf("search %q: expected %d results, got %#v", term, len(want), got)
			}
			for i := range want {
				if got[i].ID != want[i] {
					t.Fatalf("search %q: expected job %d, got %d", term, want[i], got[i].ID)
				}
			}
		}

		foreign, err := h.Jobs.ListJobs(ctx, persistence.JobFilter{OwnerID: owner.ID + 100, SeasonID: season.ID})
		if err != nil || len(foreign) != 0 {
			t.Fatalf("expected no jobs for another owner, got %#v (%v)", foreign, err)
		}
	})

	t.Run("updates are owner scoped", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		intruder := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)
		job := h.SeedJob(t, owner.ID, season.ID)
		at := testfixtures.ReferenceTime().Add(5 * time.Hour)

		if _, err := h.Jobs.UpdateJobStatus(ctx, intruder.ID, job.ID, "Offer", at); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign status update, got %v", err)
		}
		unchanged, err := h.Jobs.GetJob(ctx, owner.ID, job.ID)
		if err != nil || unchanged.CurrentStatus != "Applied" {
			t.Fatalf("expected status to stay Applied, got %#v (%v)", unchanged, err)
		}

		updated, err := h.Jobs.UpdateJobStatus(ctx, owner.ID, job.ID, "Phone Screen", at)
		if err != nil {
			t.Fatalf("UpdateJobStatus failed: %v", err)
		}
		if updated.CurrentStatus != "Phone Screen" || !updated.LastUpdated.Equal(at) {
			t.Fatalf("unexpected updated job: %#v", updated)
		}

		notes := "Take-home due Friday"
		updated.Role = "Staff Engineer"
		updated.Description = &notes
		edited, err := h.Jobs.UpdateJob(ctx, updated)
		if err != nil {
			t.Fatalf("UpdateJob failed: %v", err)
		}
		if edited.Role != "Staff Engineer" || edited.Description == nil || *edited.Description != notes {
			t.Fatalf("unexpected edited job: %#v", edited)
		}

		if err := h.Jobs.DeleteJob(ctx, intruder.ID, job.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
		}
		if err := h.Jobs.DeleteJob(ctx, owner.ID, job.ID); err != nil {
			t.Fatalf("DeleteJob failed: %v", err)
		}
	})

	t.Run("counts jobs by status", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		owner := h.SeedUser(t)
		season := h.SeedSeason(t, owner.ID)
		h.SeedJob(t, owner.ID, season.ID)
		h.SeedJob(t, owner.ID, season.ID)
		h.SeedJob(t, owner.ID, season.ID, testfixtures.WithStatus(application.StatusOffer))

		counts, err := h.Jobs.CountByStatus(ctx, owner.ID, season.ID)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if len(counts) != 2 || counts["Applied"] != 2 || counts["Offer"] != 1 {
			t.Fatalf("unexpected counts: %#v", counts)
		}

		empty, err := h.Jobs.CountByStatus(ctx, owner.ID, season.ID+100)
		if err != nil || len(empty) != 0 {
			t.Fatalf("expected empty counts, got %#v (%v)", empty, err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, revokes and prunes sessions", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		user := h.SeedUser(t)
		base := testfixtures.ReferenceTime()

		live := testfixtures.NewSessionFixture(user.ID).Persistence()
		expired := testfixtures.NewSessionFixture(user.ID, testfixtures.WithSessionExpiry(base.Add(-time.Minute))).Persistence()
		revoked := testfixtures.NewSessionFixture(user.ID).Persistence()
		for _, s := range []persistence.Session{live, expired, revoked} {
			if _, err := h.Sessions.CreateSession(ctx, s); err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
		}

		stored, err := h.Sessions.GetSession(ctx, live.Token)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if stored.ID != live.ID || stored.UserID != user.ID || !stored.ExpiresAt.Equal(live.ExpiresAt) || stored.RevokedAt != nil {
			t.Fatalf("unexpected session: %#v", stored)
		}

		first := base.Add(time.Minute)
		got, err := h.Sessions.RevokeSession(ctx, revoked.Token, first)
		if err != nil || got.RevokedAt == nil || !got.RevokedAt.Equal(first) {
			t.Fatalf("unexpected revoke result: %#v (%v)", got, err)
		}
		again, err := h.Sessions.RevokeSession(ctx, revoked.Token, first.Add(time.Hour))
		if err != nil || !again.RevokedAt.Equal(first) {
			t.Fatalf("expected the first revocation time to stick, got %#v (%v)", again, err)
		}
		if _, err := h.Sessions.RevokeSession(ctx, "unknown", first); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		if err := h.Sessions.DeleteExpiredSessions(ctx, base); err != nil {
			t.Fatalf("DeleteExpiredSessions failed: %v", err)
		}
		if _, err := h.Sessions.GetSession(ctx, live.Token); err != nil {
			t.Fatalf("expected live session to survive, got %v", err)
		}
		for _, token := range []string{expired.Token, revoked.Token} {
			if _, err := h.Sessions.GetSession(ctx, token); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected %s to be pruned, got %v", token, err)
			}
		}
	})

	t.Run("rejects duplicate tokens and unknown users", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		user := h.SeedUser(t)

		session := testfixtures.NewSessionFixture(user.ID).Persistence()
		if _, err := h.Sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		dup := testfixtures.NewSessionFixture(user.ID).Persistence()
		dup.Token = session.Token
		if _, err := h.Sessions.CreateSession(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		orphan := testfixtures.NewSessionFixture(user.ID + 100).Persistence()
		if _, err := h.Sessions.CreateSession(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})
}
