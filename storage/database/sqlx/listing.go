package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/listing"
)

type listingRepository struct {
	db core.DB
}

var _ listing.Repository = (*listingRepository)(nil) // interface compliance check

func NewListingRepository(db core.DB) *listingRepository {
	return &listingRepository{db: db}
}

type listingRecord struct {
	ID              string        `db:"id"`
	Names           string        `db:"names"`
	Phone           string        `db:"phone"`
	LevelID         null.Int      `db:"level_id"`
	SchoolID        null.Int      `db:"school_id"`
	CurrentCountyID null.Int      `db:"current_county_id"`
	MostPreferredID null.Int      `db:"most_preferred_id"`
	AcceptableIDs   pq.Int64Array `db:"acceptable_ids"`
	SubjectIDs      pq.Int64Array `db:"subject_ids"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

func optionalID(id int) null.Int { return null.NewInt(id, id != 0) }

func (repo listingRepository) record(lst listing.Listing) listingRecord {
	return listingRecord{
		ID:              lst.ID,
		Names:           lst.Names,
		Phone:           lst.Phone,
		LevelID:         optionalID(lst.LevelID),
		SchoolID:        optionalID(lst.SchoolID),
		CurrentCountyID: optionalID(lst.CurrentCountyID),
		MostPreferredID: optionalID(lst.MostPreferredID),
		CreatedAt:       lst.CreatedAt.UTC(),
		UpdatedAt:       lst.UpdatedAt.UTC(),
	}
}

func (repo listingRepository) unrecord(rec listingRecord) listing.Listing {
	lst := listing.Listing{
		ID:              rec.ID,
		Names:           rec.Names,
		Phone:           rec.Phone,
		LevelID:         rec.LevelID.Int,
		SchoolID:        rec.SchoolID.Int,
		CurrentCountyID: rec.CurrentCountyID.Int,
		MostPreferredID: rec.MostPreferredID.Int,
		AcceptableIDs:   make([]int, 0, len(rec.AcceptableIDs)),
		SubjectIDs:      make([]int, 0, len(rec.SubjectIDs)),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	for _, id := range rec.AcceptableIDs {
		lst.AcceptableIDs = append(lst.AcceptableIDs, int(id))
	}
	for _, id := range rec.SubjectIDs {
		lst.SubjectIDs = append(lst.SubjectIDs, int(id))
	}
	return lst
}

// inTx runs fn in a transaction, rolled back when fn fails.
func (repo listingRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return wrapErr(tx.Commit(), "committing transaction")
}

func (repo listingRepository) CreateListing(ctx context.Context, lst listing.Listing) (listing.Listing, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO listings (id, names, phone, level_id, school_id, current_county_id, most_preferred_id, created_at, updated_at)
			VALUES (:id, :names, :phone, :level_id, :school_id, :current_county_id, :most_preferred_id, :created_at, :updated_at)`,
			repo.record(lst))
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return listing.ErrPhoneExists
		}
		if err != nil {
			return wrapErr(err, "inserting listing")
		}
		return repo.setRelations(ctx, tx, lst)
	})
	if err != nil {
		return listing.Listing{}, err
	}
	return lst, nil
}

func (repo listingRepository) UpdateListing(ctx context.Context, lst listing.Listing) (listing.Listing, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := sqlx.NamedExecContext(ctx, tx, `
			UPDATE listings SET names = :names, phone = :phone, level_id = :level_id, school_id = :school_id,
				current_county_id = :current_county_id, most_preferred_id = :most_preferred_id, updated_at = :updated_at
			WHERE id = :id`,
			repo.record(lst))
		if err != nil {
			return wrapErr(err, "updating listing")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return listing.ErrNotFound
		}
		for _, q := range []string{
			"DELETE FROM listing_acceptable WHERE listing_id = $1",
			"DELETE FROM listing_subjects WHERE listing_id = $1",
		} {
			if _, err = tx.ExecContext(ctx, q, lst.ID); err != nil {
				return wrapErr(err, "clearing listing relations")
			}
		}
		return repo.setRelations(ctx, tx, lst)
	})
	if err != nil {
		return listing.Listing{}, err
	}
	return lst, nil
}

func (repo listingRepository) setRelations(ctx context.Context, tx *sqlx.Tx, lst listing.Listing) error {
	for _, id := range lst.AcceptableIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO listing_acceptable (listing_id, county_id) VALUES ($1, $2)", lst.ID, id); err != nil {
			return wrapErr(err, "inserting acceptable county")
		}
	}
	for _, id := range lst.SubjectIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO listing_subjects (listing_id, subject_id) VALUES ($1, $2)", lst.ID, id); err != nil {
			return wrapErr(err, "inserting listing subject")
		}
	}
	return nil
}

func (repo listingRepository) GetListingByPhone(ctx context.Context, phone string) (listing.Listing, error) {
	var rec listingRecord
	err := sqlx.GetContext(ctx, repo.db, &rec, `
		SELECT li.id, li.names, li.phone, li.level_id, li.school_id, li.current_county_id, li.most_preferred_id,
			li.created_at, li.updated_at,
			ARRAY(SELECT county_id FROM listing_acceptable WHERE listing_id = li.id ORDER BY county_id) AS acceptable_ids,
			ARRAY(SELECT subject_id FROM listing_subjects WHERE listing_id = li.id ORDER BY subject_id) AS subject_ids
		FROM listings li WHERE li.phone = $1`, phone)
	if err == sql.ErrNoRows {
		return listing.Listing{}, listing.ErrNotFound
	}
	if err != nil {
		return listing.Listing{}, wrapErr(err, "getting listing by phone")
	}
	return repo.unrecord(rec), nil
}

func (repo listingRepository) DeleteAllListings(ctx context.Context) (int, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM listings")
	if err != nil {
		return 0, wrapErr(err, "deleting listings")
	}
	n, err := res.RowsAffected()
	return int(n), wrapErr(err, "counting deleted listings")
}
