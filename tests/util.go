package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
	"github.com/tscswap/backend/storage/database/inmem"
)

// Fixture is an in-memory database seeded with a small geography, two levels and a few subjects.
type Fixture struct {
	DB        *inmemdb.DB
	Primary   swap.Level
	Secondary swap.Level
	Counties  map[string]location.County
	Schools   map[string]*location.School // by county name
	Subjects  map[string]swap.Subject
}

var counties = []struct {
	id   int
	name string
}{
	{1, "Mombasa"},
	{15, "Kitui"},
	{32, "Nakuru"},
	{42, "Kisumu"},
	{47, "Nairobi"},
}

func NewFixture() *Fixture {
	db := inmemdb.Open()
	fx := &Fixture{
		DB:        db,
		Primary:   db.AddLevel(1, "Primary"),
		Secondary: db.AddLevel(2, "Secondary/High School"),
		Counties:  make(map[string]location.County),
		Schools:   make(map[string]*location.School),
		Subjects:  make(map[string]swap.Subject),
	}
	for _, c := range counties {
		fx.Counties[c.name] = db.AddCounty(c.id, c.name)
		db.AddConstituency(c.id, c.name+" Central", c.id)
		db.AddWard(c.id, c.name+" Township", c.id)
		fx.Schools[c.name] = db.AddSchool(c.id, c.name+" Primary School", c.id)
	}
	for i, name := range []string{"English", "Literature", "Mathematics", "Physics", "Chemistry"} {
		fx.Subjects[name] = db.AddSubject(i+1, name)
	}
	return fx
}

// Person describes a participant by county & subject names.
type Person struct {
	Names     string
	Phone     string
	Secondary bool
	County    string   // current county; empty leaves the participant without a school
	Preferred string   // most preferred county
	OpenTo    []string // acceptable counties
	Subjects  []string
	Inactive  bool
	NoLevel   bool
}

func (fx *Fixture) level(p Person) *swap.Level {
	switch {
	case p.NoLevel:
		return nil
	case p.Secondary:
		lvl := fx.Secondary
		return &lvl
	}
	lvl := fx.Primary
	return &lvl
}

func (fx *Fixture) countyPtr(name string) *location.County {
	if c, ok := fx.Counties[name]; ok {
		return &c
	}
	return nil
}

func (fx *Fixture) subjects(names []string) []swap.Subject {
	var subjects []swap.Subject
	for _, name := range names {
		subjects = append(subjects, fx.Subjects[name])
	}
	return subjects
}

// CreateAccount stores an account built from p.
func (fx *Fixture) CreateAccount(id int, p Person) swap.Account {
	acc := swap.Account{
		ID:       id,
		Email:    p.Names + "@test.test",
		IsActive: !p.Inactive,
		Profile: &swap.Profile{
			FirstName: p.Names,
			Phone:     p.Phone,
			Level:     fx.level(p),
			School:    fx.Schools[p.County],
		},
		Preference: &swap.Preference{DesiredCounty: fx.countyPtr(p.Preferred)},
		Subjects:   fx.subjects(p.Subjects),
	}
	for _, name := range p.OpenTo {
		acc.Preference.OpenTo = append(acc.Preference.OpenTo, fx.Counties[name])
	}
	return fx.DB.AddAccount(acc)
}

// CreateListing stores a listing built from p, created at the given offset from now
// so that listing order is predictable.
func (fx *Fixture) CreateListing(t *testing.T, p Person, age time.Duration) listing.Listing {
	lst := listing.Listing{
		ID:              uuid.New().String(),
		Names:           p.Names,
		Phone:           p.Phone,
		CurrentCountyID: fx.Counties[p.County].ID,
		MostPreferredID: fx.Counties[p.Preferred].ID,
		CreatedAt:       time.Now().UTC().Add(-age),
	}
	if lst.Phone == "" {
		lst.Phone = "07" + lst.ID[:8]
	}
	if lvl := fx.level(p); lvl != nil {
		lst.LevelID = lvl.ID
	}
	for _, name := range p.OpenTo {
		lst.AcceptableIDs = append(lst.AcceptableIDs, fx.Counties[name].ID)
	}
	for _, name := range p.Subjects {
		lst.SubjectIDs = append(lst.SubjectIDs, fx.Subjects[name].ID)
	}
	lst.UpdatedAt = lst.CreatedAt

	lst, err := inmemdb.NewListingRepository(fx.DB).CreateListing(context.Background(), lst)
	if err != nil {
		t.Fatalf("CreateListing() failed: %v", err)
	}
	return lst
}
