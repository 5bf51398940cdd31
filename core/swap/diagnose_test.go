package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tscswap/backend/core/location"
)

func Test_report_BrokenAt(t *testing.T) {
	lvl := primary
	noWard := &location.School{ID: 1, Name: "Lonely Primary"}
	noCounty := &location.School{ID: 2, Ward: &location.Ward{ID: 2, Constituency: &location.Constituency{ID: 2}}}
	cur := kisumu

	sources := []Source{
		Account{ID: 1, IsActive: true, Profile: &Profile{Level: &lvl, School: schoolIn(nairobi)}},
		Account{ID: 2, IsActive: true, Profile: &Profile{Level: &lvl}},
		Account{ID: 3, IsActive: true},
		Account{ID: 4, IsActive: true, Profile: &Profile{Level: &lvl, School: noWard}},
		Listing{ID: "l1", Level: &lvl, School: noCounty},
		Listing{ID: "l2", Level: &lvl, CurrentCounty: &cur},
	}

	rep := report(sources)
	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, 2, rep.Eligible)
	assert.Equal(t, map[Reason]int{ReasonNoLocation: 3, ReasonNoLevel: 1}, rep.Ineligible)
	assert.Equal(t, map[location.Hop]int{
		location.HopSchool: 2,
		location.HopWard:   1,
		location.HopCounty: 1,
	}, rep.BrokenAt)
}
