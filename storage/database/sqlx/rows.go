package sqlxrepos

import (
	"github.com/volatiletech/null/v8"

	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
)

// locationCols are the nullable columns of a school joined up to its county.
type locationCols struct {
	SchoolID         null.Int    `db:"school_id"`
	SchoolName       null.String `db:"school_name"`
	WardID           null.Int    `db:"ward_id"`
	WardName         null.String `db:"ward_name"`
	ConstituencyID   null.Int    `db:"constituency_id"`
	ConstituencyName null.String `db:"constituency_name"`
	CountyID         null.Int    `db:"county_id"`
	CountyName       null.String `db:"county_name"`
}

// school rebuilds the administrative chain, stopping at the first missing hop.
func (cols locationCols) school() *location.School {
	if !cols.SchoolID.Valid {
		return nil
	}
	school := &location.School{ID: cols.SchoolID.Int, Name: cols.SchoolName.String}
	if !cols.WardID.Valid {
		return school
	}
	school.Ward = &location.Ward{ID: cols.WardID.Int, Name: cols.WardName.String}
	if !cols.ConstituencyID.Valid {
		return school
	}
	school.Ward.Constituency = &location.Constituency{ID: cols.ConstituencyID.Int, Name: cols.ConstituencyName.String}
	school.Ward.Constituency.County = county(cols.CountyID, cols.CountyName)
	return school
}

const locationJoins = `
	LEFT JOIN schools s ON s.id = %[1]s
	LEFT JOIN wards w ON w.id = s.ward_id
	LEFT JOIN constituencies cs ON cs.id = w.constituency_id
	LEFT JOIN counties c ON c.id = cs.county_id`

const locationSelect = `
	s.id AS school_id, s.name AS school_name,
	w.id AS ward_id, w.name AS ward_name,
	cs.id AS constituency_id, cs.name AS constituency_name,
	c.id AS county_id, c.name AS county_name`

func county(id null.Int, name null.String) *location.County {
	if !id.Valid {
		return nil
	}
	return &location.County{ID: id.Int, Name: name.String}
}

func level(id null.Int, name null.String) *swap.Level {
	if !id.Valid {
		return nil
	}
	return &swap.Level{ID: id.Int, Name: name.String}
}

// relRow is one row of a many-to-many relation: a county or a subject owned by an account or listing.
type relRow struct {
	OwnerID string `db:"owner_id"`
	ID      int    `db:"id"`
	Name    string `db:"name"`
}
