package swap

// PoolOptions restrict which normalized participants become candidates for an anchor.
type PoolOptions struct {
	FastSwapOnly  bool // only listings are candidates
	LevelStrict   bool // candidates must share the anchor's level
	MaxCandidates int  // 0: unlimited; otherwise the pool is cut and flagged as Truncated
}

// Pool is the candidate set assembled for one anchor.
// Edges between members are evaluated lazily with Participant.Wants.
type Pool struct {
	Anchor     Participant
	Candidates []Participant
	Excluded   map[Reason]int // ineligible members of the population, by reason
	Truncated  int            // candidates dropped because of PoolOptions.MaxCandidates
}

// BuildPool assembles the candidate pool for anchor out of population.
// population entries carry the Reason returned by Normalize; ineligible ones are only counted.
// Entries without a Reason are still checked with Participant.Ineligibility.
// The order of population is preserved, the anchor itself is never a candidate.
func BuildPool(anchor Participant, population []Normalized, opts PoolOptions) Pool {
	pool := Pool{
		Anchor:     anchor,
		Candidates: make([]Participant, 0, len(population)),
		Excluded:   make(map[Reason]int),
	}
	seen := make(map[Ref]struct{}, len(population))
	for _, n := range population {
		p := n.Participant
		reason := n.Reason
		if reason == "" {
			reason = p.Ineligibility()
		}
		if reason != "" {
			pool.Excluded[reason]++
			continue
		}
		if p.Ref == anchor.Ref {
			continue
		}
		if _, ok := seen[p.Ref]; ok {
			continue
		}
		if opts.FastSwapOnly && p.Ref.Kind != KindListing {
			continue
		}
		if opts.LevelStrict && p.Level.ID != anchor.Level.ID {
			continue
		}
		if !SubjectCompatible(anchor, p) {
			continue
		}
		seen[p.Ref] = struct{}{}
		pool.Candidates = append(pool.Candidates, p)
	}

	if opts.MaxCandidates > 0 && len(pool.Candidates) > opts.MaxCandidates {
		pool.Truncated = len(pool.Candidates) - opts.MaxCandidates
		pool.Candidates = pool.Candidates[:opts.MaxCandidates]
	}
	return pool
}

// Normalized pairs a Participant with its ineligibility reason ("" when eligible).
type Normalized struct {
	Participant Participant
	Reason      Reason
}

// NormalizeAll normalizes every source, keeping the input order.
func NormalizeAll(sources []Source) []Normalized {
	out := make([]Normalized, 0, len(sources))
	for _, src := range sources {
		p, reason := Normalize(src)
		out = append(out, Normalized{Participant: p, Reason: reason})
	}
	return out
}
