package swap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tscswap/backend/core/location"
)

type (
	// PopulationReport counts how many members of one population can take part in matching.
	PopulationReport struct {
		Total      int            `json:"total"`
		Eligible   int            `json:"eligible"`
		Secondary  int            `json:"secondary"`
		Ineligible map[Reason]int `json:"ineligible"`
		// BrokenAt counts the members without a current location by the hop their school chain stops at.
		BrokenAt map[location.Hop]int `json:"broken_at"`
	}

	Diagnosis struct {
		Accounts PopulationReport `json:"accounts"`
		Listings PopulationReport `json:"listings"`
	}
)

// Diagnose reports the eligibility of every stored account and listing.
func (svc *Service) Diagnose(ctx context.Context) (Diagnosis, error) {
	accounts, err := svc.repo.QueryAccounts(ctx, PopulationFilter{})
	if err != nil {
		return Diagnosis{}, errors.Wrap(err, "querying accounts")
	}
	listings, err := svc.repo.QueryListings(ctx, PopulationFilter{})
	if err != nil {
		return Diagnosis{}, errors.Wrap(err, "querying listings")
	}

	var diag Diagnosis
	accSources := make([]Source, 0, len(accounts))
	for _, acc := range accounts {
		accSources = append(accSources, acc)
	}
	diag.Accounts = report(accSources)

	lstSources := make([]Source, 0, len(listings))
	for _, lst := range listings {
		lstSources = append(lstSources, lst)
	}
	diag.Listings = report(lstSources)
	return diag, nil
}

func report(sources []Source) PopulationReport {
	rep := PopulationReport{
		Total:      len(sources),
		Ineligible: make(map[Reason]int),
		BrokenAt:   make(map[location.Hop]int),
	}
	for _, src := range sources {
		p, reason := Normalize(src)
		if p.Level.IsSecondary() {
			rep.Secondary++
		}
		if p.Current.IsZero() {
			if hop := brokenAt(src); hop != "" {
				rep.BrokenAt[hop]++
			}
		}
		if reason != "" {
			rep.Ineligible[reason]++
			continue
		}
		rep.Eligible++
	}
	return rep
}

// brokenAt returns the first missing hop between src's school and its county.
func brokenAt(src Source) location.Hop {
	switch s := src.(type) {
	case Account:
		if s.Profile == nil {
			return location.HopSchool
		}
		return location.ResolveCounty(s.Profile.School).Missing
	case Listing:
		if s.CurrentCounty != nil && !s.CurrentCounty.IsZero() {
			return ""
		}
		return location.ResolveCounty(s.School).Missing
	}
	return ""
}
