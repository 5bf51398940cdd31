package swap

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tscswap/backend/core/location"
)

// Kind tells where a participant comes from. It never changes matching semantics.
type Kind string

const (
	KindAccount Kind = "account"
	KindListing Kind = "listing"
)

func (k Kind) Valid() bool { return k == KindAccount || k == KindListing }

// Ref identifies a participant within a matching run.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func AccountRef(id int) Ref { return Ref{Kind: KindAccount, ID: strconv.Itoa(id)} }
func ListingRef(id string) Ref { return Ref{Kind: KindListing, ID: id} }
func (r Ref) String() string { return string(r.Kind) + "_" + r.ID }
func (r Ref) IsZero() bool { return r.Kind == "" && r.ID == "" }
func (r Ref) Less(o Ref) bool { return r.String() < o.String() }
func (r Ref) AccountID() (int, error) { return strconv.Atoi(r.ID) }

type Level struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// IsSecondary reports whether teachers of this level must also match on subjects.
func (l Level) IsSecondary() bool {
	name := strings.ToLower(l.Name)
	return strings.Contains(name, "secondary") || strings.Contains(name, "high")
}

type Subject struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// LocationSet is a set of counties keyed by ID.
type LocationSet map[int]location.County

func NewLocationSet(counties ...location.County) LocationSet {
	set := make(LocationSet, len(counties))
	for _, c := range counties {
		set.Add(c)
	}
	return set
}

func (s LocationSet) Add(c location.County) {
	if !c.IsZero() {
		s[c.ID] = c
	}
}

func (s LocationSet) Has(c location.County) bool {
	_, ok := s[c.ID]
	return ok && !c.IsZero()
}

// Sorted returns the counties ordered by ID.
func (s LocationSet) Sorted() []location.County {
	counties := make([]location.County, 0, len(s))
	for _, c := range s {
		counties = append(counties, c)
	}
	sort.Slice(counties, func(i, j int) bool { return counties[i].ID < counties[j].ID })
	return counties
}

// SubjectSet is a set of subject IDs.
type SubjectSet map[int]struct{}

func NewSubjectSet(subjects ...Subject) SubjectSet {
	set := make(SubjectSet, len(subjects))
	for _, s := range subjects {
		set[s.ID] = struct{}{}
	}
	return set
}

// Equal is an order independent set equality.
func (s SubjectSet) Equal(o SubjectSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if _, ok := o[id]; !ok {
			return false
		}
	}
	return true
}

// Participant is the uniform shape every account and listing is normalized into before matching.
type Participant struct {
	Ref           Ref
	Level         Level
	Current       location.County
	MostPreferred *location.County // display & missing link only
	Desired       LocationSet
	Subjects      SubjectSet // empty unless Level.IsSecondary()
}

// Ineligibility returns why p cannot take part in matching, or "" if it can.
func (p Participant) Ineligibility() Reason {
	switch {
	case p.Level.ID == 0:
		return ReasonNoLevel
	case p.Current.IsZero():
		return ReasonNoLocation
	case p.Level.IsSecondary() && len(p.Subjects) == 0:
		return ReasonNoSubjects
	}
	return ""
}

func (p Participant) Eligible() bool { return p.Ineligibility() == "" }

// Wants reports the edge p -> o: o is located in a county p desires.
func (p Participant) Wants(o Participant) bool {
	return p.Desired.Has(o.Current)
}

// SubjectCompatible reports whether a and b may be matched subject-wise:
// both are non-secondary, or both are secondary with exactly the same subjects.
func SubjectCompatible(a, b Participant) bool {
	aSec, bSec := a.Level.IsSecondary(), b.Level.IsSecondary()
	if !aSec && !bSec {
		return true
	}
	if aSec != bSec {
		return false
	}
	return a.Subjects.Equal(b.Subjects)
}

// Source is a raw participant record: an Account or a Listing.
type Source interface {
	Ref() Ref
	isSource()
}

type (
	// Account is a full teacher account with its profile, swap preference & subjects sub-records.
	Account struct {
		ID         int
		Email      string
		IsActive   bool
		Profile    *Profile
		Preference *Preference
		Subjects   []Subject
	}

	Profile struct {
		FirstName string
		Surname   string
		LastName  string
		Phone     string
		Level     *Level
		School    *location.School
	}

	Preference struct {
		DesiredCounty *location.County // most preferred
		OpenTo        []location.County
	}

	// Listing is a lightweight "FastSwap" record embedding the same fields flatly.
	Listing struct {
		ID            string
		Names         string
		Phone         string
		Level         *Level
		School        *location.School
		CurrentCounty *location.County
		MostPreferred *location.County
		Acceptable    []location.County
		Subjects      []Subject
	}
)

func (a Account) Ref() Ref { return AccountRef(a.ID) }
func (Account) isSource() {}

// FullName prefers first name + surname, then first name + last name, then the email.
func (a Account) FullName() string {
	if a.Profile != nil && a.Profile.FirstName != "" {
		switch {
		case a.Profile.Surname != "":
			return a.Profile.FirstName + " " + a.Profile.Surname
		case a.Profile.LastName != "":
			return a.Profile.FirstName + " " + a.Profile.LastName
		}
		return a.Profile.FirstName
	}
	return a.Email
}

func (l Listing) Ref() Ref { return ListingRef(l.ID) }
func (Listing) isSource() {}
