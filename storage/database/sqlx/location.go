package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/location"
)

// orderable whitelists the fields clients may order locations by.
var orderable = map[string]bool{"id": true, "name": true}

type locationRepository struct {
	exec core.DBExecutor
}

var _ location.Repository = (*locationRepository)(nil) // interface compliance check

func NewLocationRepository(exec core.DBExecutor) *locationRepository {
	return &locationRepository{exec: exec}
}

func orderBy(ordering []core.DBOrdering, fallback string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if orderable[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func (repo locationRepository) QueryCounties(ctx context.Context, ordering []core.DBOrdering) ([]location.County, error) {
	counties := make([]location.County, 0)
	q := "SELECT id, name FROM counties" + orderBy(ordering, "id")
	if err := sqlx.SelectContext(ctx, repo.exec, &counties, q); err != nil {
		return nil, wrapErr(err, "querying counties")
	}
	return counties, nil
}

func (repo locationRepository) QueryConstituencies(ctx context.Context, countyID int, ordering []core.DBOrdering) ([]location.Constituency, error) {
	constituencies := make([]location.Constituency, 0)
	q := "SELECT id, name FROM constituencies WHERE county_id = $1" + orderBy(ordering, "name")
	if err := sqlx.SelectContext(ctx, repo.exec, &constituencies, q, countyID); err != nil {
		return nil, wrapErr(err, "querying constituencies")
	}
	return constituencies, nil
}

func (repo locationRepository) QueryWards(ctx context.Context, constituencyID int, ordering []core.DBOrdering) ([]location.Ward, error) {
	wards := make([]location.Ward, 0)
	q := "SELECT id, name FROM wards WHERE constituency_id = $1" + orderBy(ordering, "name")
	if err := sqlx.SelectContext(ctx, repo.exec, &wards, q, constituencyID); err != nil {
		return nil, wrapErr(err, "querying wards")
	}
	return wards, nil
}
