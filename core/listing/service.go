package listing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
)

var (
	// errors
	ErrNotFound    = errors.New("listing not found")
	ErrPhoneExists = errors.New("a listing with this phone number already exists")
)

// SkipReason explains why an account did not produce a listing during a sync.
type SkipReason string

const (
	SkipNoPhone    SkipReason = "no_phone"
	SkipNoSubjects SkipReason = "no_subjects"
	SkipNoLevel    SkipReason = "no_level"
)

type (
	Repository interface {
		CreateListing(ctx context.Context, lst Listing) (Listing, error)
		UpdateListing(ctx context.Context, lst Listing) (Listing, error)
		GetListingByPhone(ctx context.Context, phone string) (Listing, error)
		DeleteAllListings(ctx context.Context) (int, error)
	}

	// AccountSource yields the full accounts listings are synced from.
	AccountSource interface {
		QueryAccounts(ctx context.Context, filter swap.PopulationFilter) ([]swap.Account, error)
	}

	SyncOptions struct {
		Update bool `json:"update"` // overwrite listings sharing an account's phone
		Clear  bool `json:"clear"`  // delete every listing first
	}

	Skipped struct {
		AccountID int        `json:"account_id"`
		Email     string     `json:"email"`
		Reason    SkipReason `json:"reason"`
	}

	SyncReport struct {
		Cleared int       `json:"cleared"`
		Created int       `json:"created"`
		Updated int       `json:"updated"`
		Skipped []Skipped `json:"skipped"`
	}

	Service struct {
		repo     Repository
		accounts AccountSource
		logger   core.Logger
	}
)

func NewService(repo Repository, accounts AccountSource, logger core.Logger) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{repo: repo, accounts: accounts, logger: logger}
}

// nowFunc is mocked in tests
var nowFunc = func() time.Time { return time.Now().UTC() }

func (svc *Service) CheckPhoneUniqueness(phone string) error {
	_, err := svc.repo.GetListingByPhone(context.Background(), phone)
	switch errors.Cause(err) {
	case ErrNotFound:
		return nil
	case nil:
		return core.NewValidationError(ErrPhoneExists, core.FieldError{Field: "phone", Error: ErrPhoneExists.Error()})
	}
	return errors.Wrap(err, "checking phone uniqueness")
}

// Create stores a validated NewListing.
func (svc *Service) Create(ctx context.Context, nl NewListing) (Listing, error) {
	now := nowFunc()
	lst := Listing{
		ID:              uuid.New().String(),
		Names:           nl.Names,
		Phone:           nl.Phone,
		LevelID:         nl.LevelID,
		SchoolID:        nl.SchoolID,
		CurrentCountyID: nl.CurrentCountyID,
		MostPreferredID: nl.MostPreferredID,
		AcceptableIDs:   uniqueIDs(nl.AcceptableIDs),
		SubjectIDs:      uniqueIDs(nl.SubjectIDs),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	lst, err := svc.repo.CreateListing(ctx, lst)
	if err != nil {
		return Listing{}, errors.Wrap(err, "creating listing")
	}
	return lst, nil
}

// SyncFromAccounts creates one listing per account, keyed by the account's phone number.
// Accounts without a phone, a level or subjects are skipped and reported.
func (svc *Service) SyncFromAccounts(ctx context.Context, opts SyncOptions) (SyncReport, error) {
	var rep SyncReport
	if opts.Clear {
		n, err := svc.repo.DeleteAllListings(ctx)
		if err != nil {
			return rep, errors.Wrap(err, "clearing listings")
		}
		rep.Cleared = n
		svc.logger.Warn("listing: cleared all listings", map[string]interface{}{"count": n})
	}

	accounts, err := svc.accounts.QueryAccounts(ctx, swap.PopulationFilter{})
	if err != nil {
		return rep, errors.Wrap(err, "querying accounts")
	}

	for _, acc := range accounts {
		if acc.Profile == nil {
			continue
		}
		lst, reason := fromAccount(acc)
		if reason != "" {
			rep.Skipped = append(rep.Skipped, Skipped{AccountID: acc.ID, Email: acc.Email, Reason: reason})
			continue
		}

		existing, err := svc.repo.GetListingByPhone(ctx, lst.Phone)
		switch errors.Cause(err) {
		case nil:
			if !opts.Update {
				continue
			}
			lst.ID = existing.ID
			lst.CreatedAt = existing.CreatedAt
			lst.UpdatedAt = nowFunc()
			if _, err = svc.repo.UpdateListing(ctx, lst); err != nil {
				return rep, errors.Wrapf(err, "updating listing %s", lst.ID)
			}
			rep.Updated++
		case ErrNotFound:
			now := nowFunc()
			lst.ID = uuid.New().String()
			lst.CreatedAt, lst.UpdatedAt = now, now
			if _, err = svc.repo.CreateListing(ctx, lst); err != nil {
				return rep, errors.Wrapf(err, "creating listing for account %d", acc.ID)
			}
			rep.Created++
		default:
			return rep, errors.Wrap(err, "finding listing by phone")
		}
	}
	return rep, nil
}

func fromAccount(acc swap.Account) (Listing, SkipReason) {
	prof := acc.Profile
	phone := NormalizePhone(prof.Phone)
	switch {
	case phone == "":
		return Listing{}, SkipNoPhone
	case len(acc.Subjects) == 0:
		return Listing{}, SkipNoSubjects
	case prof.Level == nil || prof.Level.ID == 0:
		return Listing{}, SkipNoLevel
	}

	lst := Listing{
		Names:   listingNames(acc),
		Phone:   phone,
		LevelID: prof.Level.ID,
	}
	if prof.School != nil {
		lst.SchoolID = prof.School.ID
	}
	if res := location.ResolveCounty(prof.School); res.OK() {
		lst.CurrentCountyID = res.County.ID
	}
	if pref := acc.Preference; pref != nil {
		if pref.DesiredCounty != nil {
			lst.MostPreferredID = pref.DesiredCounty.ID
		}
		for _, c := range pref.OpenTo {
			lst.AcceptableIDs = append(lst.AcceptableIDs, c.ID)
		}
	}
	for _, s := range acc.Subjects {
		lst.SubjectIDs = append(lst.SubjectIDs, s.ID)
	}
	lst.AcceptableIDs = uniqueIDs(lst.AcceptableIDs)
	lst.SubjectIDs = uniqueIDs(lst.SubjectIDs)
	return lst, ""
}

// listingNames joins every known name part, falling back to the email.
func listingNames(acc swap.Account) string {
	var parts []string
	for _, p := range []string{acc.Profile.FirstName, acc.Profile.Surname, acc.Profile.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return acc.Email
	}
	return strings.Join(parts, " ")
}

func uniqueIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
