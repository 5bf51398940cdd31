package inmemdb

import (
	"context"
	"sort"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/location"
)

type locationRepository struct {
	db *DB
}

var _ location.Repository = (*locationRepository)(nil) // interface compliance check

func NewLocationRepository(db *DB) *locationRepository {
	return &locationRepository{db: db}
}

func (repo *locationRepository) QueryCounties(_ context.Context, ordering []core.DBOrdering) ([]location.County, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counties := make([]location.County, 0, len(repo.db.counties))
	for _, c := range repo.db.counties {
		counties = append(counties, c)
	}
	sortCounties(counties, ordering)
	return counties, nil
}

func (repo *locationRepository) QueryConstituencies(_ context.Context, countyID int, _ []core.DBOrdering) ([]location.Constituency, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	constituencies := make([]location.Constituency, 0)
	for id, row := range repo.db.constituencies {
		if row.countyID == countyID {
			constituencies = append(constituencies, location.Constituency{ID: id, Name: row.name, County: repo.db.county(countyID)})
		}
	}
	sort.Slice(constituencies, func(i, j int) bool { return constituencies[i].Name < constituencies[j].Name })
	return constituencies, nil
}

func (repo *locationRepository) QueryWards(_ context.Context, constituencyID int, _ []core.DBOrdering) ([]location.Ward, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wards := make([]location.Ward, 0)
	for id, row := range repo.db.wards {
		if row.constituencyID == constituencyID {
			wards = append(wards, location.Ward{ID: id, Name: row.name})
		}
	}
	sort.Slice(wards, func(i, j int) bool { return wards[i].Name < wards[j].Name })
	return wards, nil
}
