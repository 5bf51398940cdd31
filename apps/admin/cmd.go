package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB // nil with the in-memory engine
	swapSvc    *swap.Service
	listingSvc *listing.Service
	presenter  *present.Presenter
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                 - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  matches -kind account|listing -id ID [-fast] [-loose]  - find the swap matches of a participant")
	fmt.Fprintln(cli.out, "          [-limit N] [-json]")
	fmt.Fprintln(cli.out, "  diagnose                                               - report why accounts & listings cannot be matched")
	fmt.Fprintln(cli.out, "  synclistings [-update] [-clear]                        - create a listing for every complete account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	matchesCmd := flag.NewFlagSet("matches", flag.ContinueOnError)
	matchesKind := matchesCmd.String("kind", string(swap.KindListing), "The participant kind: account or listing.")
	matchesID := matchesCmd.String("id", "", "The account or listing ID.")
	matchesFast := matchesCmd.Bool("fast", false, "Only match against listings.")
	matchesLoose := matchesCmd.Bool("loose", false, "Match across levels.")
	matchesLimit := matchesCmd.Int("limit", 0, "The maximum number of matches to print (0: default).")
	matchesJSON := matchesCmd.Bool("json", false, "Print the raw outcome as JSON.")

	syncCmd := flag.NewFlagSet("synclistings", flag.ContinueOnError)
	syncUpdate := syncCmd.Bool("update", false, "Overwrite listings sharing an account's phone number.")
	syncClear := syncCmd.Bool("clear", false, "Delete every listing first.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "matches":
		matchesCmd.SetOutput(cli.out)
		if err := matchesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *matchesID == "" {
			matchesCmd.Usage()
			return errHelp
		}
		ref := swap.Ref{Kind: swap.Kind(*matchesKind), ID: *matchesID}
		if !ref.Kind.Valid() {
			return swap.ErrInvalidKind
		}
		return cli.matches(ctx, ref, swap.Options{FastSwapOnly: *matchesFast, LevelStrict: !*matchesLoose}, *matchesLimit, *matchesJSON)
	case "diagnose":
		return cli.diagnose(ctx)
	case "synclistings":
		syncCmd.SetOutput(cli.out)
		if err := syncCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.syncListings(ctx, listing.SyncOptions{Update: *syncUpdate, Clear: *syncClear})
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) matches(ctx context.Context, ref swap.Ref, opts swap.Options, limit int, asJSON bool) error {
	out, err := cli.swapSvc.FindMatches(ctx, ref, opts)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	text, err := cli.presenter.Render(ctx, out, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, text)
	fmt.Fprintf(cli.out, "\n%d candidate(s) considered", out.Candidates)
	if out.Truncated > 0 {
		fmt.Fprintf(cli.out, ", %d dropped by the candidate cap", out.Truncated)
	}
	fmt.Fprintln(cli.out)
	return nil
}

func (cli *commandLine) diagnose(ctx context.Context) error {
	diag, err := cli.swapSvc.Diagnose(ctx)
	if err != nil {
		return err
	}
	printReport(cli.out, "Accounts", diag.Accounts)
	printReport(cli.out, "Listings", diag.Listings)
	return nil
}

func printReport(w io.Writer, title string, rep swap.PopulationReport) {
	fmt.Fprintf(w, "%s: %d total, %d eligible, %d secondary\n", title, rep.Total, rep.Eligible, rep.Secondary)
	for _, reason := range []swap.Reason{swap.ReasonInactive, swap.ReasonNoLevel, swap.ReasonNoLocation, swap.ReasonNoSubjects} {
		if n := rep.Ineligible[reason]; n > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", reason, n)
		}
	}
	for _, hop := range []location.Hop{location.HopSchool, location.HopWard, location.HopConstituency, location.HopCounty} {
		if n := rep.BrokenAt[hop]; n > 0 {
			fmt.Fprintf(w, "  missing %-12s %d\n", hop, n)
		}
	}
}

func (cli *commandLine) syncListings(ctx context.Context, opts listing.SyncOptions) error {
	rep, err := cli.listingSvc.SyncFromAccounts(ctx, opts)
	if err != nil {
		return err
	}
	if opts.Clear {
		fmt.Fprintf(cli.out, "Cleared %d listing(s)\n", rep.Cleared)
	}
	fmt.Fprintf(cli.out, "Created %d, updated %d, skipped %d\n", rep.Created, rep.Updated, len(rep.Skipped))
	for _, s := range rep.Skipped {
		fmt.Fprintf(cli.out, "  skipped account %d (%s): %s\n", s.AccountID, s.Email, s.Reason)
	}
	return nil
}
