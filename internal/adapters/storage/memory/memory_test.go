package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-records/internal/domain/clinical"
	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/domain/pets"
	"vet-clinic-records/internal/domain/sessions"
	"vet-clinic-records/internal/domain/users"
	"vet-clinic-records/internal/platform/dates"
)

func TestUserRepo_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo()

	require.NoError(t, repo.Create(ctx, users.User{ID: "u1", Username: "ana", Email: "ana@x.test", Role: permissions.RoleUser}))
	require.NoError(t, repo.Create(ctx, users.User{ID: "u2", Username: "bob", Email: "bob@x.test", Role: permissions.RoleUser, Active: false}))

	err := repo.Create(ctx, users.User{ID: "u3", Username: "bob", Email: "other@x.test"})
	require.ErrorIs(t, err, users.ErrUsernameTaken)

	_, err = repo.Update(ctx, "u1", func(u *users.User) error {
		u.Email = "bob@x.test"
		return nil
	})
	require.ErrorIs(t, err, users.ErrEmailTaken)

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.test", got.Email)
}

func TestReportRepo_OnlyActivePetsInWindow(t *testing.T) {
	ctx := context.Background()
	petRepo := NewPetRepo()
	clinicalRepo := NewClinicalRepo()
	reportRepo := NewReportRepo(petRepo, clinicalRepo)

	require.NoError(t, petRepo.Create(ctx, pets.Pet{ID: "p1", Name: "Rex", Species: pets.SpeciesDog, Active: true}))
	require.NoError(t, petRepo.Create(ctx, pets.Pet{ID: "p2", Name: "Mia", Species: pets.SpeciesCat, Active: false}))

	due := func(d dates.Date) *dates.Date { return &d }
	from := dates.New(2024, time.January, 20)
	to := from.AddDays(30)

	records := []clinical.Vaccination{
		{ID: "v1", PetID: "p1", VaccineName: "V10", ApplicationDate: dates.New(2024, 1, 10), NextDoseDate: due(dates.New(2024, 2, 9))},
		{ID: "v2", PetID: "p1", VaccineName: "Rabies", ApplicationDate: dates.New(2024, 1, 10), NextDoseDate: due(to)},
		{ID: "v3", PetID: "p1", VaccineName: "Late", ApplicationDate: dates.New(2024, 1, 10), NextDoseDate: due(to.AddDays(1))},
		{ID: "v4", PetID: "p1", VaccineName: "Past", ApplicationDate: dates.New(2024, 1, 10), NextDoseDate: due(from.AddDays(-1))},
		{ID: "v5", PetID: "p2", VaccineName: "V10", ApplicationDate: dates.New(2024, 1, 10), NextDoseDate: due(dates.New(2024, 2, 1))},
		{ID: "v6", PetID: "p1", VaccineName: "NoNext", ApplicationDate: dates.New(2024, 1, 10)},
	}
	for _, v := range records {
		require.NoError(t, clinicalRepo.CreateVaccination(ctx, v))
	}

	got, err := reportRepo.UpcomingDoses(ctx, from, to)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.VaccinationID)
	}
	assert.ElementsMatch(t, []string{"v1", "v2"}, ids)
}

func TestClinicalRepo_UpdateKeepsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewClinicalRepo()

	require.NoError(t, repo.CreateParasiticControl(ctx, clinical.ParasiticControl{
		ID: "c1", PetID: "p1", ProductName: "Bravecto", ApplicationDate: dates.New(2024, 1, 5),
	}))

	got, err := repo.UpdateParasiticControl(ctx, "c1", func(c *clinical.ParasiticControl) error {
		c.PetID = "p2"
		c.Dose = "1 tab"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PetID)
	assert.Equal(t, "1 tab", got.Dose)

	require.ErrorIs(t, repo.DeleteParasiticControl(ctx, "missing"), clinical.ErrParasiticControlNotFound)
}

func TestSessionStore_ExpiresByClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore().WithClock(func() time.Time { return now })

	err := store.Save(ctx, sessions.Session{TokenHash: "old", UserID: "u1", ExpiresAt: now})
	require.ErrorIs(t, err, sessions.ErrExpired)

	require.NoError(t, store.Save(ctx, sessions.Session{TokenHash: "h", UserID: "u1", ExpiresAt: now.Add(time.Minute)}))

	_, err = store.Get(ctx, "h")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "h")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}
