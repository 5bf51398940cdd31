package swap

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/location"
)

type MatchType string

const (
	MatchMutual   MatchType = "mutual"
	MatchTriangle MatchType = "triangle"
)

// Match is one detected swap opportunity for the anchor.
// For mutual matches only B is set. For triangles C is nil when nobody was found where B wants to go.
type Match struct {
	Type        MatchType
	B           Ref
	C           *Ref
	IsComplete  bool
	MissingFrom *location.County
	MissingTo   *location.County
}

// Confirmed reports whether every edge of the match holds.
func (m Match) Confirmed() bool {
	return m.Type == MatchMutual || m.IsComplete
}

// Refs returns the participants (other than the anchor) involved in the match.
func (m Match) Refs() []Ref {
	if m.C == nil {
		return []Ref{m.B}
	}
	return []Ref{m.B, *m.C}
}

func (m Match) MarshalJSON() ([]byte, error) {
	if m.Type == MatchMutual {
		return json.Marshal(struct {
			Type  MatchType `json:"type"`
			Other Ref       `json:"other"`
		}{m.Type, m.B})
	}
	return json.Marshal(struct {
		Type        MatchType        `json:"type"`
		B           Ref              `json:"b"`
		C           *Ref             `json:"c"`
		IsComplete  bool             `json:"is_complete"`
		MissingFrom *location.County `json:"missing_from"`
		MissingTo   *location.County `json:"missing_to"`
	}{m.Type, m.B, m.C, m.IsComplete, m.MissingFrom, m.MissingTo})
}

type (
	DetectorOptions struct {
		// MissingLinkFallback makes a "missing C" record fall back to the lowest-id county B desires
		// when B has no most preferred county.
		MissingLinkFallback bool
	}

	// Detector finds mutual pairs and triangle chains around a pool's anchor.
	// It holds no state between runs.
	Detector struct {
		logger core.Logger
		opts   DetectorOptions
	}

	// Detection is the full result of a detector run.
	Detection struct {
		Matches   []Match
		Conflicts int // triangles found with both completeness flags
	}
)

func NewDetector(logger core.Logger, opts DetectorOptions) *Detector {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Detector{logger: logger, opts: opts}
}

// Detect returns every match for the pool's anchor, in discovery order.
// It fails with an *IneligibleError when the anchor cannot be matched.
func (d *Detector) Detect(ctx context.Context, pool Pool) ([]Match, error) {
	res, err := d.Run(ctx, pool)
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}

// checkEvery is how many inner iterations run between two context checks.
const checkEvery = 256

// Run is Detect with the run's bookkeeping attached.
func (d *Detector) Run(ctx context.Context, pool Pool) (Detection, error) {
	anchor := pool.Anchor
	if reason := anchor.Ineligibility(); reason != "" {
		return Detection{}, &IneligibleError{Ref: anchor.Ref, Reason: reason}
	}

	res := Detection{Matches: []Match{}}
	dedup := newDedup(anchor.Ref)
	steps := 0

	for _, b := range pool.Candidates {
		if err := ctx.Err(); err != nil {
			return Detection{}, errors.Wrap(err, "detecting matches")
		}
		if b.Ref == anchor.Ref || !anchor.Wants(b) {
			continue
		}

		if b.Wants(anchor) {
			if dedup.mutual(b.Ref) {
				res.Matches = append(res.Matches, Match{Type: MatchMutual, B: b.Ref, IsComplete: true})
			}
			continue
		}

		foundC := false
		for _, c := range pool.Candidates {
			if steps++; steps%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return Detection{}, errors.Wrap(err, "detecting matches")
				}
			}
			if c.Ref == b.Ref || c.Ref == anchor.Ref || !b.Wants(c) {
				continue
			}
			complete := c.Wants(anchor)
			added, conflict := dedup.triangle(b.Ref, c.Ref, complete)
			if conflict {
				res.Conflicts++
				d.logger.Warn("swap: triangle found with conflicting completeness", map[string]interface{}{
					"anchor": anchor.Ref.String(), "b": b.Ref.String(), "c": c.Ref.String(),
				})
			}
			if !added {
				continue
			}
			foundC = true

			cRef := c.Ref
			m := Match{Type: MatchTriangle, B: b.Ref, C: &cRef, IsComplete: complete}
			if !complete {
				m.MissingFrom = countyPtr(c.Current)
				m.MissingTo = countyPtr(anchor.Current)
			}
			res.Matches = append(res.Matches, m)
		}

		if !foundC && len(b.Desired) > 0 {
			if added, _ := dedup.triangle(b.Ref, Ref{}, false); added {
				res.Matches = append(res.Matches, Match{
					Type:        MatchTriangle,
					B:           b.Ref,
					MissingFrom: d.missingFrom(b),
					MissingTo:   countyPtr(anchor.Current),
				})
			}
		}
	}
	return res, nil
}

func (d *Detector) missingFrom(b Participant) *location.County {
	if b.MostPreferred != nil && !b.MostPreferred.IsZero() {
		return countyPtr(*b.MostPreferred)
	}
	if d.opts.MissingLinkFallback {
		if desired := b.Desired.Sorted(); len(desired) > 0 {
			return countyPtr(desired[0])
		}
	}
	return nil
}

func countyPtr(c location.County) *location.County { return &c }

// dedup keeps the structural keys of the records already emitted in one run.
type dedup struct {
	anchor    Ref
	mutuals   map[[2]Ref]struct{}
	triangles map[[3]Ref]bool // ordered (anchor, B, C) -> completeness flags seen
	both      map[[3]Ref]struct{}
}

func newDedup(anchor Ref) *dedup {
	return &dedup{
		anchor:    anchor,
		mutuals:   make(map[[2]Ref]struct{}),
		triangles: make(map[[3]Ref]bool),
		both:      make(map[[3]Ref]struct{}),
	}
}

// mutual records the unordered pair {anchor, b}; it reports false if already present.
func (d *dedup) mutual(b Ref) bool {
	key := [2]Ref{d.anchor, b}
	if b.Less(d.anchor) {
		key = [2]Ref{b, d.anchor}
	}
	if _, ok := d.mutuals[key]; ok {
		return false
	}
	d.mutuals[key] = struct{}{}
	return true
}

// triangle records (anchor, b, c, complete). Records with the same participants but a different
// completeness flag are both kept and reported as a conflict.
func (d *dedup) triangle(b, c Ref, complete bool) (added, conflict bool) {
	key := [3]Ref{d.anchor, b, c}
	if _, ok := d.both[key]; ok {
		return false, false
	}
	seen, ok := d.triangles[key]
	switch {
	case !ok:
		d.triangles[key] = complete
		return true, false
	case seen == complete:
		return false, false
	}
	d.both[key] = struct{}{}
	return true, true
}
