package swap

import "github.com/tscswap/backend/core/location"

// Normalize converts a raw account or listing into a Participant.
// The returned Reason is empty when the participant is eligible for matching;
// partially filled records are never an error.
func Normalize(src Source) (Participant, Reason) {
	var p Participant
	switch s := src.(type) {
	case Account:
		p = normalizeAccount(s)
		if !s.IsActive {
			return p, ReasonInactive
		}
	case Listing:
		p = normalizeListing(s)
	default:
		return p, ReasonNoLevel
	}
	return p, p.Ineligibility()
}

func normalizeAccount(acc Account) Participant {
	p := Participant{
		Ref:     acc.Ref(),
		Desired: make(LocationSet),
	}
	if acc.Profile != nil {
		if acc.Profile.Level != nil {
			p.Level = *acc.Profile.Level
		}
		if res := location.ResolveCounty(acc.Profile.School); res.OK() {
			p.Current = res.County
		}
	}
	if pref := acc.Preference; pref != nil {
		if pref.DesiredCounty != nil && !pref.DesiredCounty.IsZero() {
			mp := *pref.DesiredCounty
			p.MostPreferred = &mp
			p.Desired.Add(mp)
		}
		for _, c := range pref.OpenTo {
			p.Desired.Add(c)
		}
	}
	p.Subjects = subjectsFor(p.Level, acc.Subjects)
	return p
}

func normalizeListing(lst Listing) Participant {
	p := Participant{
		Ref:     lst.Ref(),
		Desired: make(LocationSet),
	}
	if lst.Level != nil {
		p.Level = *lst.Level
	}
	if lst.CurrentCounty != nil && !lst.CurrentCounty.IsZero() {
		p.Current = *lst.CurrentCounty
	} else if res := location.ResolveCounty(lst.School); res.OK() {
		p.Current = res.County
	}
	if lst.MostPreferred != nil && !lst.MostPreferred.IsZero() {
		mp := *lst.MostPreferred
		p.MostPreferred = &mp
		p.Desired.Add(mp)
	}
	for _, c := range lst.Acceptable {
		p.Desired.Add(c)
	}
	p.Subjects = subjectsFor(p.Level, lst.Subjects)
	return p
}

// subjectsFor only keeps subjects for secondary-like levels; for other levels they do not apply.
func subjectsFor(lvl Level, subjects []Subject) SubjectSet {
	if !lvl.IsSecondary() {
		return SubjectSet{}
	}
	return NewSubjectSet(subjects...)
}
