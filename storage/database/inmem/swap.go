package inmemdb

import (
	"context"
	"sort"

	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/swap"
)

type swapRepository struct {
	db *DB
}

var _ swap.Repository = (*swapRepository)(nil) // interface compliance check

func NewSwapRepository(db *DB) *swapRepository {
	return &swapRepository{db: db}
}

func (repo *swapRepository) GetAccount(_ context.Context, id int) (swap.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acc, ok := repo.db.accounts[id]; ok {
		return *acc, nil
	}
	return swap.Account{}, swap.ErrParticipantNotFound
}

func (repo *swapRepository) GetListing(_ context.Context, id string) (swap.Listing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if lst, ok := repo.db.listings[id]; ok {
		return repo.toSwap(lst), nil
	}
	return swap.Listing{}, swap.ErrParticipantNotFound
}

func (repo *swapRepository) QueryAccounts(_ context.Context, filter swap.PopulationFilter) ([]swap.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accounts := make([]swap.Account, 0, len(repo.db.accounts))
	for _, acc := range repo.db.accounts {
		if filter.LevelID != 0 && (acc.Profile == nil || acc.Profile.Level == nil || acc.Profile.Level.ID != filter.LevelID) {
			continue
		}
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (repo *swapRepository) QueryListings(_ context.Context, filter swap.PopulationFilter) ([]swap.Listing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]*listing.Listing, 0, len(repo.db.listings))
	for _, lst := range repo.db.listings {
		if filter.LevelID != 0 && lst.LevelID != filter.LevelID {
			continue
		}
		rows = append(rows, lst)
	}
	sortListings(rows)

	listings := make([]swap.Listing, 0, len(rows))
	for _, lst := range rows {
		listings = append(listings, repo.toSwap(lst))
	}
	return listings, nil
}

// toSwap must be called with the mutex held.
func (repo *swapRepository) toSwap(lst *listing.Listing) swap.Listing {
	out := swap.Listing{
		ID:            lst.ID,
		Names:         lst.Names,
		Phone:         lst.Phone,
		Level:         repo.db.level(lst.LevelID),
		School:        repo.db.school(lst.SchoolID),
		CurrentCounty: repo.db.county(lst.CurrentCountyID),
		MostPreferred: repo.db.county(lst.MostPreferredID),
	}
	for _, id := range lst.AcceptableIDs {
		if c := repo.db.county(id); c != nil {
			out.Acceptable = append(out.Acceptable, *c)
		}
	}
	for _, id := range lst.SubjectIDs {
		if s, ok := repo.db.subjects[id]; ok {
			out.Subjects = append(out.Subjects, s)
		}
	}
	return out
}

// sortListings orders listings oldest first.
func sortListings(rows []*listing.Listing) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
