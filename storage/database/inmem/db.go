package inmemdb

import (
	"sort"
	"sync"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
)

type (
	// DB is a process local store, used by tests and when the database engine is "inmem".
	DB struct {
		mutex sync.RWMutex

		counties       map[int]location.County
		constituencies map[int]constituencyRow
		wards          map[int]wardRow
		schools        map[int]schoolRow
		levels         map[int]swap.Level
		subjects       map[int]swap.Subject
		accounts       map[int]*swap.Account
		listings       map[string]*listing.Listing
	}

	constituencyRow struct {
		name     string
		countyID int
	}

	wardRow struct {
		name           string
		constituencyID int
	}

	schoolRow struct {
		name   string
		wardID int
	}
)

func Open() *DB {
	return &DB{
		counties:       make(map[int]location.County),
		constituencies: make(map[int]constituencyRow),
		wards:          make(map[int]wardRow),
		schools:        make(map[int]schoolRow),
		levels:         make(map[int]swap.Level),
		subjects:       make(map[int]swap.Subject),
		accounts:       make(map[int]*swap.Account),
		listings:       make(map[string]*listing.Listing),
	}
}

func (db *DB) AddCounty(id int, name string) location.County {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	c := location.County{ID: id, Name: name}
	db.counties[id] = c
	return c
}

func (db *DB) AddConstituency(id int, name string, countyID int) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.constituencies[id] = constituencyRow{name: name, countyID: countyID}
}

func (db *DB) AddWard(id int, name string, constituencyID int) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.wards[id] = wardRow{name: name, constituencyID: constituencyID}
}

// AddSchool stores a school and returns it with its full administrative chain.
func (db *DB) AddSchool(id int, name string, wardID int) *location.School {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.schools[id] = schoolRow{name: name, wardID: wardID}
	return db.school(id)
}

func (db *DB) AddLevel(id int, name string) swap.Level {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	lvl := swap.Level{ID: id, Name: name}
	db.levels[id] = lvl
	return lvl
}

func (db *DB) AddSubject(id int, name string) swap.Subject {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	subj := swap.Subject{ID: id, Name: name}
	db.subjects[id] = subj
	return subj
}

// AddAccount stores acc as is; it is the caller's job to build its profile from stored rows.
func (db *DB) AddAccount(acc swap.Account) swap.Account {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.accounts[acc.ID] = &acc
	return acc
}

// school must be called with the mutex held.
func (db *DB) school(id int) *location.School {
	row, ok := db.schools[id]
	if !ok {
		return nil
	}
	school := &location.School{ID: id, Name: row.name}
	w, ok := db.wards[row.wardID]
	if !ok {
		return school
	}
	school.Ward = &location.Ward{ID: row.wardID, Name: w.name}
	cst, ok := db.constituencies[w.constituencyID]
	if !ok {
		return school
	}
	school.Ward.Constituency = &location.Constituency{ID: w.constituencyID, Name: cst.name}
	if county, ok := db.counties[cst.countyID]; ok {
		school.Ward.Constituency.County = &county
	}
	return school
}

func (db *DB) county(id int) *location.County {
	if c, ok := db.counties[id]; ok {
		return &c
	}
	return nil
}

func (db *DB) level(id int) *swap.Level {
	if lvl, ok := db.levels[id]; ok {
		return &lvl
	}
	return nil
}

func sortCounties(counties []location.County, ordering []core.DBOrdering) {
	less := func(a, b location.County) bool { return a.ID < b.ID }
	if len(ordering) > 0 && ordering[0].Field == "name" {
		less = func(a, b location.County) bool { return a.Name < b.Name }
	}
	asc := len(ordering) == 0 || ordering[0].Ascending
	sort.SliceStable(counties, func(i, j int) bool {
		if asc {
			return less(counties[i], counties[j])
		}
		return less(counties[j], counties[i])
	})
}
