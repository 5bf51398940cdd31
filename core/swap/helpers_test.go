package swap

import "github.com/tscswap/backend/core/location"

var (
	primary   = Level{ID: 1, Name: "Primary"}
	secondary = Level{ID: 2, Name: "Secondary/High School"}

	nairobi = location.County{ID: 47, Name: "Nairobi"}
	kisumu  = location.County{ID: 42, Name: "Kisumu"}
	mombasa = location.County{ID: 1, Name: "Mombasa"}
	nakuru  = location.County{ID: 32, Name: "Nakuru"}
	kitui   = location.County{ID: 15, Name: "Kitui"}

	english    = Subject{ID: 1, Name: "English"}
	literature = Subject{ID: 2, Name: "Literature"}
	maths      = Subject{ID: 3, Name: "Mathematics"}
	physics    = Subject{ID: 4, Name: "Physics"}
	chemistry  = Subject{ID: 5, Name: "Chemistry"}
)

func participant(ref Ref, lvl Level, current location.County, desired ...location.County) Participant {
	return Participant{
		Ref:      ref,
		Level:    lvl,
		Current:  current,
		Desired:  NewLocationSet(desired...),
		Subjects: SubjectSet{},
	}
}

func teaching(p Participant, subjects ...Subject) Participant {
	p.Subjects = NewSubjectSet(subjects...)
	return p
}

func preferring(p Participant, c location.County) Participant {
	p.MostPreferred = &c
	p.Desired.Add(c)
	return p
}

func eligible(ps ...Participant) []Normalized {
	out := make([]Normalized, 0, len(ps))
	for _, p := range ps {
		out = append(out, Normalized{Participant: p, Reason: p.Ineligibility()})
	}
	return out
}

func schoolIn(c location.County) *location.School {
	return &location.School{
		ID:   c.ID * 100,
		Name: c.Name + " Primary",
		Ward: &location.Ward{ID: c.ID * 10, Constituency: &location.Constituency{ID: c.ID, County: &c}},
	}
}
