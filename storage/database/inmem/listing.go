package inmemdb

import (
	"context"

	"github.com/tscswap/backend/core/listing"
)

type listingRepository struct {
	db *DB
}

var _ listing.Repository = (*listingRepository)(nil) // interface compliance check

func NewListingRepository(db *DB) *listingRepository {
	return &listingRepository{db: db}
}

func (repo *listingRepository) CreateListing(_ context.Context, lst listing.Listing) (listing.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, l := range repo.db.listings {
		if l.Phone == lst.Phone {
			return listing.Listing{}, listing.ErrPhoneExists
		}
	}
	stored := lst
	repo.db.listings[lst.ID] = &stored
	return lst, nil
}

func (repo *listingRepository) UpdateListing(_ context.Context, lst listing.Listing) (listing.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.listings[lst.ID]; !ok {
		return listing.Listing{}, listing.ErrNotFound
	}
	stored := lst
	repo.db.listings[lst.ID] = &stored
	return lst, nil
}

func (repo *listingRepository) GetListingByPhone(_ context.Context, phone string) (listing.Listing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, lst := range repo.db.listings {
		if lst.Phone == phone {
			return *lst, nil
		}
	}
	return listing.Listing{}, listing.ErrNotFound
}

func (repo *listingRepository) DeleteAllListings(_ context.Context) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n := len(repo.db.listings)
	repo.db.listings = make(map[string]*listing.Listing)
	return n, nil
}
