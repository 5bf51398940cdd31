package swap

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
)

// Status tells callers how a matching run ended.
type Status string

const (
	StatusMatched          Status = "matched"
	StatusNoMatches        Status = "no_matches"
	StatusAnchorIneligible Status = "anchor_ineligible"
)

type (
	// PopulationFilter narrows what the repository loads; zero values mean "everything".
	PopulationFilter struct {
		LevelID int
	}

	// Repository is the read-only view of the stored accounts & listings.
	Repository interface {
		GetAccount(ctx context.Context, id int) (Account, error)
		GetListing(ctx context.Context, id string) (Listing, error)
		QueryAccounts(ctx context.Context, filter PopulationFilter) ([]Account, error)
		QueryListings(ctx context.Context, filter PopulationFilter) ([]Listing, error)
	}

	// Recorder receives the bookkeeping of each matching run (eg. prometheus metrics).
	Recorder interface {
		RecordRun(stats RunStats)
	}

	RunStats struct {
		Kind       Kind
		Status     Status
		Reason     Reason
		Duration   time.Duration
		Candidates int
		Truncated  int
		Mutual     int
		Complete   int
		Incomplete int
		Conflicts  int
	}

	// Settings are the service wide defaults, usually read from core.MatchingConfig.
	Settings struct {
		LevelStrict         bool
		FastSwapOnly        bool
		MissingLinkFallback bool
		MaxCandidates       int
	}

	// Options are the per request matching flags.
	Options struct {
		FastSwapOnly bool
		LevelStrict  bool
	}

	// Outcome is the result of one matching run.
	// An ineligible anchor is reported through Status & Reason, never as an empty list of matches.
	Outcome struct {
		Anchor     Ref     `json:"anchor"`
		Status     Status  `json:"status"`
		Reason     Reason  `json:"reason,omitempty"`
		Matches    []Match `json:"matches"`
		Candidates int     `json:"candidates"`
		Truncated  int     `json:"truncated,omitempty"`
	}

	Service struct {
		repo     Repository
		detector *Detector
		recorder Recorder
		logger   core.Logger
		settings Settings
	}
)

func NewSettings(cfg core.MatchingConfig) Settings {
	return Settings{
		LevelStrict:         cfg.LevelStrict,
		FastSwapOnly:        cfg.FastSwapOnly,
		MissingLinkFallback: cfg.MissingLinkFallback,
		MaxCandidates:       cfg.MaxCandidates,
	}
}

func NewService(repo Repository, recorder Recorder, logger core.Logger, settings Settings) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{
		repo:     repo,
		detector: NewDetector(logger, DetectorOptions{MissingLinkFallback: settings.MissingLinkFallback}),
		recorder: recorder,
		logger:   logger,
		settings: settings,
	}
}

// DefaultOptions returns the per request options implied by the service settings.
func (svc *Service) DefaultOptions() Options {
	return Options{FastSwapOnly: svc.settings.FastSwapOnly, LevelStrict: svc.settings.LevelStrict}
}

// GetSource loads the raw account or listing behind ref.
func (svc *Service) GetSource(ctx context.Context, ref Ref) (Source, error) {
	switch ref.Kind {
	case KindAccount:
		id, err := ref.AccountID()
		if err != nil {
			return nil, ErrParticipantNotFound
		}
		acc, err := svc.repo.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		return acc, nil
	case KindListing:
		lst, err := svc.repo.GetListing(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return lst, nil
	}
	return nil, ErrInvalidKind
}

// FindMatches computes the swap matches of the participant behind ref.
// The population is loaded once, up front, and never written to.
func (svc *Service) FindMatches(ctx context.Context, ref Ref, opts Options) (Outcome, error) {
	start := time.Now()
	src, err := svc.GetSource(ctx, ref)
	if err != nil {
		return Outcome{}, err
	}

	anchor, reason := Normalize(src)
	if reason != "" {
		out := Outcome{Anchor: ref, Status: StatusAnchorIneligible, Reason: reason, Matches: []Match{}}
		svc.record(ref.Kind, out, Detection{}, time.Since(start))
		return out, nil
	}

	population, err := svc.loadPopulation(ctx, anchor, opts)
	if err != nil {
		return Outcome{}, err
	}

	pool := BuildPool(anchor, population, PoolOptions{
		FastSwapOnly:  opts.FastSwapOnly,
		LevelStrict:   opts.LevelStrict,
		MaxCandidates: svc.settings.MaxCandidates,
	})
	if pool.Truncated > 0 {
		svc.logger.Warn("swap: candidate pool truncated", map[string]interface{}{
			"anchor": ref.String(), "kept": len(pool.Candidates), "dropped": pool.Truncated,
		})
	}

	res, err := svc.detector.Run(ctx, pool)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Anchor:     ref,
		Status:     StatusNoMatches,
		Matches:    res.Matches,
		Candidates: len(pool.Candidates),
		Truncated:  pool.Truncated,
	}
	if len(res.Matches) > 0 {
		out.Status = StatusMatched
	}
	svc.record(ref.Kind, out, res, time.Since(start))
	return out, nil
}

// loadPopulation returns listings first, then accounts unless only listings are wanted.
func (svc *Service) loadPopulation(ctx context.Context, anchor Participant, opts Options) ([]Normalized, error) {
	var filter PopulationFilter
	if opts.LevelStrict {
		filter.LevelID = anchor.Level.ID
	}

	listings, err := svc.repo.QueryListings(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying listings")
	}
	sources := make([]Source, 0, len(listings))
	for _, lst := range listings {
		sources = append(sources, lst)
	}

	if !opts.FastSwapOnly {
		accounts, err := svc.repo.QueryAccounts(ctx, filter)
		if err != nil {
			return nil, errors.Wrap(err, "querying accounts")
		}
		for _, acc := range accounts {
			sources = append(sources, acc)
		}
	}
	return NormalizeAll(sources), nil
}

func (svc *Service) record(kind Kind, out Outcome, res Detection, d time.Duration) {
	if svc.recorder == nil {
		return
	}
	stats := RunStats{
		Kind:       kind,
		Status:     out.Status,
		Reason:     out.Reason,
		Duration:   d,
		Candidates: out.Candidates,
		Truncated:  out.Truncated,
		Conflicts:  res.Conflicts,
	}
	for _, m := range out.Matches {
		switch {
		case m.Type == MatchMutual:
			stats.Mutual++
		case m.IsComplete:
			stats.Complete++
		default:
			stats.Incomplete++
		}
	}
	svc.recorder.RecordRun(stats)
}

// Publisher hands confirmed matches to whoever notifies the participants.
// It is called by the engine's callers after a run, never during one.
type Publisher interface {
	PublishMatches(ctx context.Context, out Outcome) error
}

// Confirmed returns the mutual & complete triangle matches of the outcome.
func (out Outcome) Confirmed() []Match {
	var matches []Match
	for _, m := range out.Matches {
		if m.Confirmed() {
			matches = append(matches, m)
		}
	}
	return matches
}
