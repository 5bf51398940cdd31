package location

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/tscswap/backend/core"
)

var (
	// errors
	ErrCountyNotFound = errors.New("county not found")

	maxSuggestions = 3
	minSimilarity  = .6
)

// NotFoundError is returned when a county name cannot be resolved.
// Suggestions holds the closest known county names, best first.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (err *NotFoundError) Error() string { return ErrCountyNotFound.Error() + ": " + err.Name }
func (err *NotFoundError) Cause() error  { return ErrCountyNotFound }

type (
	Repository interface {
		QueryCounties(ctx context.Context, ordering []core.DBOrdering) ([]County, error)
		QueryConstituencies(ctx context.Context, countyID int, ordering []core.DBOrdering) ([]Constituency, error)
		QueryWards(ctx context.Context, constituencyID int, ordering []core.DBOrdering) ([]Ward, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryCounties(ctx context.Context, ordering []core.DBOrdering) ([]County, error) {
	return svc.repo.QueryCounties(ctx, ordering)
}

func (svc *Service) QueryConstituencies(ctx context.Context, countyID int, ordering []core.DBOrdering) ([]Constituency, error) {
	if countyID == 0 {
		return []Constituency{}, nil
	}
	return svc.repo.QueryConstituencies(ctx, countyID, ordering)
}

func (svc *Service) QueryWards(ctx context.Context, constituencyID int, ordering []core.DBOrdering) ([]Ward, error) {
	if constituencyID == 0 {
		return []Ward{}, nil
	}
	return svc.repo.QueryWards(ctx, constituencyID, ordering)
}

// FindCounty does a case-insensitive lookup of a county by name.
// On a miss it returns a *NotFoundError with up to 3 spelling suggestions.
func (svc *Service) FindCounty(ctx context.Context, name string) (County, error) {
	name = core.CleanString(name, true /* lower */)
	counties, err := svc.repo.QueryCounties(ctx, nil)
	if err != nil {
		return County{}, errors.Wrap(err, "querying counties")
	}
	for _, c := range counties {
		if strings.ToLower(c.Name) == name {
			return c, nil
		}
	}
	return County{}, &NotFoundError{Name: name, Suggestions: suggest(name, counties)}
}

func suggest(name string, counties []County) []string {
	if name == "" {
		return nil
	}
	type candidate struct {
		name  string
		ratio float64
	}
	chars := strings.Split(name, "")
	var candidates []candidate
	for _, c := range counties {
		m := difflib.NewMatcher(chars, strings.Split(strings.ToLower(c.Name), ""))
		if m.QuickRatio() < minSimilarity {
			continue
		}
		if ratio := m.Ratio(); ratio >= minSimilarity {
			candidates = append(candidates, candidate{name: c.Name, ratio: ratio})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ratio > candidates[j].ratio })

	suggestions := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.name)
	}
	return suggestions
}
