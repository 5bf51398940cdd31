package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/swap"
	sqlxrepos "github.com/tscswap/backend/storage/database/sqlx"
	"github.com/tscswap/backend/tests"
)

var seed = []string{
	`INSERT INTO counties (id, name) VALUES (42, 'Kisumu'), (47, 'Nairobi'), (32, 'Nakuru')`,
	`INSERT INTO constituencies (id, name, county_id) VALUES (42, 'Kisumu Central', 42), (47, 'Westlands', 47)`,
	`INSERT INTO wards (id, name, constituency_id) VALUES (42, 'Railways', 42), (47, 'Parklands', 47)`,
	`INSERT INTO schools (id, name, ward_id) VALUES (42, 'Kisumu Boys', 42), (47, 'Parklands Primary', 47), (99, 'Orphan School', NULL)`,
	`INSERT INTO levels (id, name) VALUES (1, 'Primary'), (2, 'Secondary')`,
	`INSERT INTO subjects (id, name) VALUES (1, 'English'), (2, 'Physics')`,
	`INSERT INTO accounts (id, email, is_active) VALUES (1, 'bob@test.test', true), (2, 'carol@test.test', true), (3, 'dan@test.test', false)`,
	`INSERT INTO profiles (account_id, first_name, surname, phone, level_id, school_id) VALUES
		(1, 'Bob', 'Otieno', '0722000111', 1, 42),
		(2, 'Carol', NULL, '0722000222', 2, 47),
		(3, 'Dan', NULL, NULL, NULL, 99)`,
	`INSERT INTO preferences (account_id, desired_county_id) VALUES (1, 47), (2, NULL)`,
	`INSERT INTO preference_open_to (account_id, county_id) VALUES (1, 32), (2, 42)`,
	`INSERT INTO account_subjects (account_id, subject_id) VALUES (2, 2), (2, 1)`,
}

func TestSwapRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.MustExec(t, db, seed...)
	ctx := context.Background()
	repo := sqlxrepos.NewSwapRepository(db)

	t.Run("GetAccount", func(t *testing.T) {
		acc, err := repo.GetAccount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Bob Otieno", acc.FullName())
		require.NotNil(t, acc.Profile)
		assert.Equal(t, "0722000111", acc.Profile.Phone)
		assert.Equal(t, &swap.Level{ID: 1, Name: "Primary"}, acc.Profile.Level)

		p, reason := swap.Normalize(acc)
		assert.Empty(t, reason)
		assert.Equal(t, 42, p.Current.ID)
		require.NotNil(t, p.MostPreferred)
		assert.Equal(t, "Nairobi", p.MostPreferred.Name)
		assert.Len(t, p.Desired, 2)
	})

	t.Run("GetAccount broken chain", func(t *testing.T) {
		acc, err := repo.GetAccount(ctx, 3)
		require.NoError(t, err)
		assert.False(t, acc.IsActive)
		assert.Nil(t, acc.Profile.Level)
		assert.Nil(t, acc.Preference)
		_, reason := swap.Normalize(acc)
		assert.Equal(t, swap.ReasonInactive, reason)
	})

	t.Run("GetAccount not found", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, 404)
		assert.Equal(t, swap.ErrParticipantNotFound, err)
	})

	t.Run("QueryAccounts", func(t *testing.T) {
		accounts, err := repo.QueryAccounts(ctx, swap.PopulationFilter{})
		require.NoError(t, err)
		require.Len(t, accounts, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{accounts[0].ID, accounts[1].ID, accounts[2].ID})
		assert.Equal(t, []swap.Subject{{ID: 1, Name: "English"}, {ID: 2, Name: "Physics"}}, accounts[1].Subjects)

		accounts, err = repo.QueryAccounts(ctx, swap.PopulationFilter{LevelID: 2})
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, 2, accounts[0].ID)
	})
}

func TestListingRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.MustExec(t, db, seed...)
	ctx := context.Background()
	repo := sqlxrepos.NewListingRepository(db)
	swapRepo := sqlxrepos.NewSwapRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	older := listing.Listing{
		ID:              uuid.New().String(),
		Names:           "Jane",
		Phone:           "0711000111",
		LevelID:         1,
		CurrentCountyID: 47,
		MostPreferredID: 42,
		AcceptableIDs:   []int{32},
		SubjectIDs:      []int{},
		CreatedAt:       now.Add(-time.Hour),
		UpdatedAt:       now.Add(-time.Hour),
	}
	newer := listing.Listing{
		ID:         uuid.New().String(),
		Names:      "John",
		Phone:      "0711000222",
		LevelID:    2,
		SchoolID:   42,
		SubjectIDs: []int{2, 1},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := repo.CreateListing(ctx, newer)
	require.NoError(t, err)
	_, err = repo.CreateListing(ctx, older)
	require.NoError(t, err)

	t.Run("duplicate phone", func(t *testing.T) {
		dup := older
		dup.ID = uuid.New().String()
		_, err := repo.CreateListing(ctx, dup)
		assert.Equal(t, listing.ErrPhoneExists, errors.Cause(err))
	})

	t.Run("GetListingByPhone", func(t *testing.T) {
		got, err := repo.GetListingByPhone(ctx, older.Phone)
		require.NoError(t, err)
		assert.Equal(t, older.ID, got.ID)
		assert.Equal(t, []int{32}, got.AcceptableIDs)

		_, err = repo.GetListingByPhone(ctx, "0700000000")
		assert.Equal(t, listing.ErrNotFound, err)
	})

	t.Run("UpdateListing", func(t *testing.T) {
		upd := older
		upd.AcceptableIDs = []int{32, 42}
		upd.UpdatedAt = now
		_, err := repo.UpdateListing(ctx, upd)
		require.NoError(t, err)

		got, err := repo.GetListingByPhone(ctx, older.Phone)
		require.NoError(t, err)
		assert.Equal(t, []int{32, 42}, got.AcceptableIDs)
	})

	t.Run("QueryListings", func(t *testing.T) {
		listings, err := swapRepo.QueryListings(ctx, swap.PopulationFilter{})
		require.NoError(t, err)
		require.Len(t, listings, 2)
		assert.Equal(t, older.ID, listings[0].ID) // oldest first
		assert.Equal(t, "Nairobi", listings[0].CurrentCounty.Name)
		assert.Len(t, listings[0].Acceptable, 2)

		p, reason := swap.Normalize(listings[1])
		assert.Empty(t, reason)
		assert.Equal(t, 42, p.Current.ID) // through its school
		assert.Len(t, p.Subjects, 2)
	})

	t.Run("DeleteAllListings", func(t *testing.T) {
		n, err := repo.DeleteAllListings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestLocationRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.MustExec(t, db, seed...)
	ctx := context.Background()
	repo := sqlxrepos.NewLocationRepository(db)

	counties, err := repo.QueryCounties(ctx, []core.DBOrdering{{Field: "name", Ascending: false}})
	require.NoError(t, err)
	require.Len(t, counties, 3)
	assert.Equal(t, "Nakuru", counties[0].Name)

	counties, err = repo.QueryCounties(ctx, []core.DBOrdering{{Field: "id; DROP TABLE counties", Ascending: true}})
	require.NoError(t, err)
	assert.Len(t, counties, 3)

	constituencies, err := repo.QueryConstituencies(ctx, 47, nil)
	require.NoError(t, err)
	require.Len(t, constituencies, 1)
	assert.Equal(t, "Westlands", constituencies[0].Name)

	wards, err := repo.QueryWards(ctx, 42, nil)
	require.NoError(t, err)
	require.Len(t, wards, 1)
	assert.Equal(t, "Railways", wards[0].Name)
}

func TestContactRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.MustExec(t, db, seed...)
	repo := sqlxrepos.NewContactRepository(db)

	contacts, err := repo.GetContacts(context.Background(), []swap.Ref{swap.AccountRef(1), swap.AccountRef(404), swap.ListingRef(uuid.New().String())})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	c := contacts[swap.AccountRef(1)]
	assert.Equal(t, "Bob Otieno", c.Name)
	assert.Equal(t, "Kisumu Boys", c.School)
	assert.Equal(t, "Kisumu", c.County)
}
