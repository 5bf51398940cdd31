package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
)

type swapRepository struct {
	exec core.DBExecutor
}

var _ swap.Repository = (*swapRepository)(nil) // interface compliance check

func NewSwapRepository(exec core.DBExecutor) *swapRepository {
	return &swapRepository{exec: exec}
}

type accountRow struct {
	ID            int         `db:"id"`
	Email         string      `db:"email"`
	IsActive      bool        `db:"is_active"`
	HasProfile    bool        `db:"has_profile"`
	FirstName     null.String `db:"first_name"`
	Surname       null.String `db:"surname"`
	LastName      null.String `db:"last_name"`
	Phone         null.String `db:"phone"`
	LevelID       null.Int    `db:"level_id"`
	LevelName     null.String `db:"level_name"`
	HasPreference bool        `db:"has_preference"`
	DesiredID     null.Int    `db:"desired_id"`
	DesiredName   null.String `db:"desired_name"`
	locationCols
}

var accountQuery = `
SELECT a.id, a.email, a.is_active,
	p.account_id IS NOT NULL AS has_profile,
	p.first_name, p.surname, p.last_name, p.phone,
	l.id AS level_id, l.name AS level_name,
	pr.account_id IS NOT NULL AS has_preference,
	dc.id AS desired_id, dc.name AS desired_name,` + locationSelect + `
FROM accounts a
	LEFT JOIN profiles p ON p.account_id = a.id
	LEFT JOIN levels l ON l.id = p.level_id
	LEFT JOIN preferences pr ON pr.account_id = a.id
	LEFT JOIN counties dc ON dc.id = pr.desired_county_id` + fmt.Sprintf(locationJoins, "p.school_id")

type listingRow struct {
	ID                string      `db:"id"`
	Names             string      `db:"names"`
	Phone             string      `db:"phone"`
	LevelID           null.Int    `db:"level_id"`
	LevelName         null.String `db:"level_name"`
	CurrentCountyID   null.Int    `db:"current_county_id"`
	CurrentCountyName null.String `db:"current_county_name"`
	PreferredID       null.Int    `db:"preferred_id"`
	PreferredName     null.String `db:"preferred_name"`
	locationCols
}

var listingQuery = `
SELECT li.id, li.names, li.phone,
	l.id AS level_id, l.name AS level_name,
	cc.id AS current_county_id, cc.name AS current_county_name,
	mp.id AS preferred_id, mp.name AS preferred_name,` + locationSelect + `
FROM listings li
	LEFT JOIN levels l ON l.id = li.level_id
	LEFT JOIN counties cc ON cc.id = li.current_county_id
	LEFT JOIN counties mp ON mp.id = li.most_preferred_id` + fmt.Sprintf(locationJoins, "li.school_id")

// trapNoRowsErr maps psql "no rows" err to swap.ErrParticipantNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return swap.ErrParticipantNotFound
	}
	return wrapErr(err, msg)
}

func (repo swapRepository) GetAccount(ctx context.Context, id int) (swap.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, accountQuery+" WHERE a.id = $1", id); err != nil {
		return swap.Account{}, trapNoRowsErr(err, "getting account")
	}
	accounts, err := repo.accounts(ctx, []accountRow{row})
	if err != nil {
		return swap.Account{}, err
	}
	return accounts[0], nil
}

func (repo swapRepository) GetListing(ctx context.Context, id string) (swap.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return swap.Listing{}, swap.ErrParticipantNotFound
	}
	var row listingRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, listingQuery+" WHERE li.id = $1", id); err != nil {
		return swap.Listing{}, trapNoRowsErr(err, "getting listing")
	}
	listings, err := repo.listings(ctx, []listingRow{row})
	if err != nil {
		return swap.Listing{}, err
	}
	return listings[0], nil
}

func (repo swapRepository) QueryAccounts(ctx context.Context, filter swap.PopulationFilter) ([]swap.Account, error) {
	q, args := accountQuery, []interface{}{}
	if filter.LevelID != 0 {
		q += " WHERE p.level_id = $1"
		args = append(args, filter.LevelID)
	}
	var rows []accountRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q+" ORDER BY a.id", args...); err != nil {
		return nil, wrapErr(err, "querying accounts")
	}
	return repo.accounts(ctx, rows)
}

func (repo swapRepository) QueryListings(ctx context.Context, filter swap.PopulationFilter) ([]swap.Listing, error) {
	q, args := listingQuery, []interface{}{}
	if filter.LevelID != 0 {
		q += " WHERE li.level_id = $1"
		args = append(args, filter.LevelID)
	}
	var rows []listingRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q+" ORDER BY li.created_at, li.id", args...); err != nil {
		return nil, wrapErr(err, "querying listings")
	}
	return repo.listings(ctx, rows)
}

func (repo swapRepository) accounts(ctx context.Context, rows []accountRow) ([]swap.Account, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, strconv.Itoa(r.ID))
	}
	subjects, err := repo.relations(ctx, `
		SELECT r.account_id::text AS owner_id, sub.id, sub.name
		FROM account_subjects r JOIN subjects sub ON sub.id = r.subject_id
		WHERE r.account_id::text = ANY($1) ORDER BY sub.id`, ids)
	if err != nil {
		return nil, wrapErr(err, "querying account subjects")
	}
	openTo, err := repo.relations(ctx, `
		SELECT r.account_id::text AS owner_id, c.id, c.name
		FROM preference_open_to r JOIN counties c ON c.id = r.county_id
		WHERE r.account_id::text = ANY($1) ORDER BY c.id`, ids)
	if err != nil {
		return nil, wrapErr(err, "querying account preferences")
	}

	accounts := make([]swap.Account, 0, len(rows))
	for i, r := range rows {
		acc := swap.Account{ID: r.ID, Email: r.Email, IsActive: r.IsActive}
		if r.HasProfile {
			acc.Profile = &swap.Profile{
				FirstName: r.FirstName.String,
				Surname:   r.Surname.String,
				LastName:  r.LastName.String,
				Phone:     r.Phone.String,
				Level:     level(r.LevelID, r.LevelName),
				School:    r.school(),
			}
		}
		if r.HasPreference {
			acc.Preference = &swap.Preference{
				DesiredCounty: county(r.DesiredID, r.DesiredName),
				OpenTo:        counties(openTo[ids[i]]),
			}
		}
		acc.Subjects = subjectsOf(subjects[ids[i]])
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func (repo swapRepository) listings(ctx context.Context, rows []listingRow) ([]swap.Listing, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	subjects, err := repo.relations(ctx, `
		SELECT r.listing_id::text AS owner_id, sub.id, sub.name
		FROM listing_subjects r JOIN subjects sub ON sub.id = r.subject_id
		WHERE r.listing_id::text = ANY($1) ORDER BY sub.id`, ids)
	if err != nil {
		return nil, wrapErr(err, "querying listing subjects")
	}
	acceptable, err := repo.relations(ctx, `
		SELECT r.listing_id::text AS owner_id, c.id, c.name
		FROM listing_acceptable r JOIN counties c ON c.id = r.county_id
		WHERE r.listing_id::text = ANY($1) ORDER BY c.id`, ids)
	if err != nil {
		return nil, wrapErr(err, "querying listing counties")
	}

	listings := make([]swap.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, swap.Listing{
			ID:            r.ID,
			Names:         r.Names,
			Phone:         r.Phone,
			Level:         level(r.LevelID, r.LevelName),
			School:        r.school(),
			CurrentCounty: county(r.CurrentCountyID, r.CurrentCountyName),
			MostPreferred: county(r.PreferredID, r.PreferredName),
			Acceptable:    counties(acceptable[r.ID]),
			Subjects:      subjectsOf(subjects[r.ID]),
		})
	}
	return listings, nil
}

// relations loads a many-to-many relation for every owner at once, grouped by owner id.
func (repo swapRepository) relations(ctx context.Context, q string, ownerIDs []string) (map[string][]relRow, error) {
	grouped := make(map[string][]relRow, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return grouped, nil
	}
	var rows []relRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, strings.TrimSpace(q), pq.Array(ownerIDs)); err != nil {
		return nil, err
	}
	for _, r := range rows {
		grouped[r.OwnerID] = append(grouped[r.OwnerID], r)
	}
	return grouped, nil
}

func counties(rows []relRow) []location.County {
	out := make([]location.County, 0, len(rows))
	for _, r := range rows {
		out = append(out, location.County{ID: r.ID, Name: r.Name})
	}
	return out
}

func subjectsOf(rows []relRow) []swap.Subject {
	out := make([]swap.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, swap.Subject{ID: r.ID, Name: r.Name})
	}
	return out
}
