package location

type (
	County struct {
		ID   int    `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
	}

	Constituency struct {
		ID     int     `json:"id" db:"id"`
		Name   string  `json:"name" db:"name"`
		County *County `json:"county,omitempty"`
	}

	Ward struct {
		ID           int           `json:"id" db:"id"`
		Name         string        `json:"name" db:"name"`
		Constituency *Constituency `json:"constituency,omitempty"`
	}

	School struct {
		ID   int    `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
		Ward *Ward  `json:"ward,omitempty"`
	}
)

func (c County) IsZero() bool { return c.ID == 0 }

// Hop names the level of the hierarchy a Resolution stopped at.
type Hop string

const (
	HopSchool       Hop = "school"
	HopWard         Hop = "ward"
	HopConstituency Hop = "constituency"
	HopCounty       Hop = "county"
)

// Resolution is the outcome of walking school -> ward -> constituency -> county.
// Missing is empty when County was found.
type Resolution struct {
	County  County
	Missing Hop
}

func (r Resolution) OK() bool { return r.Missing == "" }

// ResolveCounty follows the administrative hierarchy up from a school.
// A broken chain is reported through Resolution.Missing, never as an error.
func ResolveCounty(school *School) Resolution {
	switch {
	case school == nil:
		return Resolution{Missing: HopSchool}
	case school.Ward == nil:
		return Resolution{Missing: HopWard}
	case school.Ward.Constituency == nil:
		return Resolution{Missing: HopConstituency}
	case school.Ward.Constituency.County == nil || school.Ward.Constituency.County.IsZero():
		return Resolution{Missing: HopCounty}
	}
	return Resolution{County: *school.Ward.Constituency.County}
}
