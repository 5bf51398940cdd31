package swap_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
	"github.com/tscswap/backend/storage/database/inmem"
	"github.com/tscswap/backend/tests"
)

type recorderMock struct {
	runs []swap.RunStats
}

func (r *recorderMock) RecordRun(stats swap.RunStats) { r.runs = append(r.runs, stats) }

func setup(settings swap.Settings) (*testutil.Fixture, *swap.Service, *recorderMock) {
	fx := testutil.NewFixture()
	rec := new(recorderMock)
	svc := swap.NewService(inmemdb.NewSwapRepository(fx.DB), rec, nil, settings)
	return fx, svc, rec
}

func TestService_FindMatches(t *testing.T) {
	fx, svc, rec := setup(swap.Settings{LevelStrict: true})
	ctx := context.Background()

	anchor := fx.CreateListing(t, testutil.Person{Names: "anchor", County: "Nairobi", OpenTo: []string{"Kisumu"}}, 4*time.Hour)
	mutual := fx.CreateListing(t, testutil.Person{Names: "mutual", County: "Kisumu", Preferred: "Nairobi"}, 3*time.Hour)
	acc := fx.CreateAccount(1, testutil.Person{Names: "chain", County: "Kisumu", OpenTo: []string{"Mombasa"}})
	closer := fx.CreateAccount(2, testutil.Person{Names: "closer", County: "Mombasa", Preferred: "Nairobi"})
	fx.CreateAccount(3, testutil.Person{Names: "inactive", County: "Kisumu", Preferred: "Nairobi", Inactive: true})
	fx.CreateAccount(4, testutil.Person{Names: "secondary", Secondary: true, County: "Kisumu", Preferred: "Nairobi", Subjects: []string{"English"}})

	t.Run("all participants", func(t *testing.T) {
		out, err := svc.FindMatches(ctx, swap.ListingRef(anchor.ID), svc.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, swap.StatusMatched, out.Status)
		assert.Equal(t, 3, out.Candidates)

		c := closer.Ref()
		assert.Equal(t, []swap.Match{
			{Type: swap.MatchMutual, B: swap.ListingRef(mutual.ID), IsComplete: true},
			{Type: swap.MatchTriangle, B: acc.Ref(), C: &c, IsComplete: true},
		}, out.Matches)
		assert.Len(t, out.Confirmed(), 2)
	})

	t.Run("fast swap only", func(t *testing.T) {
		out, err := svc.FindMatches(ctx, swap.ListingRef(anchor.ID), swap.Options{FastSwapOnly: true, LevelStrict: true})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Candidates)
		assert.Equal(t, []swap.Match{{Type: swap.MatchMutual, B: swap.ListingRef(mutual.ID), IsComplete: true}}, out.Matches)
	})

	t.Run("account anchor", func(t *testing.T) {
		// closer (Mombasa) -> anchor (Nairobi) -> mutual or chain (Kisumu); only chain wants Mombasa
		out, err := svc.FindMatches(ctx, closer.Ref(), svc.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, swap.StatusMatched, out.Status)
		require.Len(t, out.Matches, 2)

		incomplete, complete := out.Matches[0], out.Matches[1]
		assert.Equal(t, swap.ListingRef(anchor.ID), incomplete.B)
		assert.Equal(t, swap.ListingRef(mutual.ID), *incomplete.C)
		assert.False(t, incomplete.IsComplete)
		assert.Equal(t, "Kisumu", incomplete.MissingFrom.Name)
		assert.Equal(t, "Mombasa", incomplete.MissingTo.Name)
		assert.Equal(t, acc.Ref(), *complete.C)
		assert.True(t, complete.IsComplete)
		assert.Len(t, out.Confirmed(), 1)
	})

	require.NotEmpty(t, rec.runs)
	assert.Equal(t, swap.KindListing, rec.runs[0].Kind)
	assert.Equal(t, 1, rec.runs[0].Mutual)
	assert.Equal(t, 1, rec.runs[0].Complete)
}

func TestService_FindMatches_Ineligible(t *testing.T) {
	fx, svc, rec := setup(swap.Settings{LevelStrict: true})
	ctx := context.Background()

	noSchool := fx.CreateAccount(1, testutil.Person{Names: "nowhere", OpenTo: []string{"Kisumu"}})
	inactive := fx.CreateAccount(2, testutil.Person{Names: "inactive", County: "Nairobi", Inactive: true})
	noSubjects := fx.CreateListing(t, testutil.Person{Names: "nosubj", Secondary: true, County: "Nairobi"}, 0)

	tests := []struct {
		name string
		ref  swap.Ref
		want swap.Reason
	}{
		{name: "no location", ref: noSchool.Ref(), want: swap.ReasonNoLocation},
		{name: "inactive", ref: inactive.Ref(), want: swap.ReasonInactive},
		{name: "no subjects", ref: swap.ListingRef(noSubjects.ID), want: swap.ReasonNoSubjects},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.FindMatches(ctx, tt.ref, svc.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, swap.StatusAnchorIneligible, out.Status)
			assert.Equal(t, tt.want, out.Reason)
			assert.Empty(t, out.Matches)
		})
	}
	assert.Len(t, rec.runs, 3)
}

func TestService_FindMatches_NotFound(t *testing.T) {
	_, svc, _ := setup(swap.Settings{})
	ctx := context.Background()

	tests := []struct {
		name string
		ref  swap.Ref
		want error
	}{
		{name: "unknown account", ref: swap.AccountRef(99), want: swap.ErrParticipantNotFound},
		{name: "bad account id", ref: swap.Ref{Kind: swap.KindAccount, ID: "abc"}, want: swap.ErrParticipantNotFound},
		{name: "unknown listing", ref: swap.ListingRef("nope"), want: swap.ErrParticipantNotFound},
		{name: "bad kind", ref: swap.Ref{Kind: "teacher", ID: "1"}, want: swap.ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FindMatches(ctx, tt.ref, svc.DefaultOptions())
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestService_FindMatches_Truncated(t *testing.T) {
	fx, svc, _ := setup(swap.Settings{LevelStrict: true, FastSwapOnly: true, MaxCandidates: 2})
	anchor := fx.CreateListing(t, testutil.Person{Names: "anchor", County: "Nairobi", OpenTo: []string{"Kisumu"}}, time.Hour)
	for i := 0; i < 3; i++ {
		fx.CreateListing(t, testutil.Person{Names: "b", County: "Kisumu", Preferred: "Nairobi"}, time.Duration(-i)*time.Minute)
	}

	out, err := svc.FindMatches(context.Background(), swap.ListingRef(anchor.ID), svc.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Candidates)
	assert.Equal(t, 1, out.Truncated)
	assert.Len(t, out.Matches, 2)
}

func TestService_Diagnose(t *testing.T) {
	fx, svc, _ := setup(swap.Settings{})
	fx.CreateAccount(1, testutil.Person{Names: "ok", County: "Nairobi"})
	fx.CreateAccount(2, testutil.Person{Names: "nolevel", County: "Nairobi", NoLevel: true})
	fx.CreateAccount(3, testutil.Person{Names: "sec", Secondary: true, County: "Nairobi", Subjects: []string{"English"}})
	fx.CreateListing(t, testutil.Person{Names: "nosubj", Secondary: true, County: "Nairobi"}, 0)

	diag, err := svc.Diagnose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, swap.PopulationReport{
		Total:      3,
		Eligible:   2,
		Secondary:  1,
		Ineligible: map[swap.Reason]int{swap.ReasonNoLevel: 1},
		BrokenAt:   map[location.Hop]int{},
	}, diag.Accounts)
	assert.Equal(t, 1, diag.Listings.Ineligible[swap.ReasonNoSubjects])
	assert.Equal(t, 1, diag.Listings.Secondary)
}

func TestOutcome_JSON(t *testing.T) {
	out := swap.Outcome{Anchor: swap.AccountRef(1), Status: swap.StatusAnchorIneligible, Reason: swap.ReasonNoLevel, Matches: []swap.Match{}}
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"anchor":{"kind":"account","id":"1"},"status":"anchor_ineligible","reason":"no_level","matches":[],"candidates":0}`, string(data))
}

func TestService_FindMatches_NoMatches(t *testing.T) {
	fx, svc, _ := setup(swap.Settings{LevelStrict: true})
	lonely := fx.CreateAccount(1, testutil.Person{Names: "lonely", County: "Kitui", Preferred: "Nakuru"})
	fx.CreateAccount(2, testutil.Person{Names: "other", County: "Mombasa", Preferred: "Kitui"})

	out, err := svc.FindMatches(context.Background(), lonely.Ref(), svc.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, swap.StatusNoMatches, out.Status)
	assert.Empty(t, out.Reason)
	assert.NotNil(t, out.Matches)
	assert.Equal(t, 1, out.Candidates)
}
