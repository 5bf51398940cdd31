package present

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/swap"
)

const separator = "━━━━━━━━━━━━━━━━━━━━"

type (
	// Contact is what a participant is displayed as.
	Contact struct {
		Ref      swap.Ref `json:"ref"`
		Name     string   `json:"name"`
		School   string   `json:"school"`
		County   string   `json:"county"`
		Phone    string   `json:"phone"`
		Subjects []string `json:"subjects,omitempty"`
	}

	// ContactDirectory fetches display data for the participants of a result.
	// Unknown refs are left out of the returned map.
	ContactDirectory interface {
		GetContacts(ctx context.Context, refs []swap.Ref) (map[swap.Ref]Contact, error)
	}

	Presenter struct {
		dir   ContactDirectory
		limit int
	}
)

func NewPresenter(dir ContactDirectory, limit int) *Presenter {
	return &Presenter{dir: dir, limit: limit}
}

// Render formats out as a chat message. limit <= 0 uses the presenter's default.
func (p *Presenter) Render(ctx context.Context, out swap.Outcome, limit int) (string, error) {
	if limit <= 0 {
		limit = p.limit
	}
	shown := out.Matches
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var refs []swap.Ref
	for _, m := range shown {
		refs = append(refs, m.Refs()...)
	}
	contacts := map[swap.Ref]Contact{}
	if len(refs) > 0 {
		var err error
		if contacts, err = p.dir.GetContacts(ctx, refs); err != nil {
			return "", errors.Wrap(err, "getting contacts")
		}
	}
	return FormatMatches(out, contacts, limit), nil
}

var guidance = map[swap.Reason]string{
	swap.ReasonNoLevel:    "Set your teaching level first, then search again.",
	swap.ReasonNoLocation: "Set your current school so we know which county you teach in, then search again.",
	swap.ReasonNoSubjects: "Add the subjects you teach. Secondary teachers are matched on their subjects.",
	swap.ReasonInactive:   "Your account is not active yet. Activate it to search for swaps.",
}

// FormatMatches renders at most limit matches (all of them when limit <= 0) with masked phone numbers.
func FormatMatches(out swap.Outcome, contacts map[swap.Ref]Contact, limit int) string {
	switch out.Status {
	case swap.StatusAnchorIneligible:
		if msg, ok := guidance[out.Reason]; ok {
			return "⚠️ We cannot search for swaps for you yet.\n\n" + msg
		}
		return "⚠️ We cannot search for swaps for you yet. Complete your profile, then search again."
	case swap.StatusNoMatches:
		return "No matching swaps found.\n\n💡 Try adding more counties you are open to, or check again later."
	}

	total := len(out.Matches)
	shown := out.Matches
	if limit > 0 && total > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Swap Opportunities Found*\n\nFound %d match(es):\n\n%s", total, separator)
	for i, m := range shown {
		b.WriteString("\n\n")
		writeMatch(&b, i+1, m, contacts)
	}
	if total > len(shown) {
		fmt.Fprintf(&b, "\n\n... and %d more result(s)", total-len(shown))
	}
	b.WriteString("\n\n" + separator)
	b.WriteString("\n💡 Log in to your TSC Swap account to see all results and full contact details!")
	return b.String()
}

func writeMatch(b *strings.Builder, n int, m swap.Match, contacts map[swap.Ref]Contact) {
	other := contactOf(m.B, contacts)
	switch {
	case m.Type == swap.MatchMutual:
		fmt.Fprintf(b, "%d. 🔁 *Mutual swap*\n", n)
		writeContact(b, other)
	case m.C == nil:
		fmt.Fprintf(b, "%d. 🔺 *Triangle swap* (missing link)\n", n)
		writeContact(b, other)
		fmt.Fprintf(b, "\n   ⛓ Nobody found yet in %s who would move to %s", countyName(m.MissingFrom, "their preferred county"), countyName(m.MissingTo, "your county"))
	default:
		third := contactOf(*m.C, contacts)
		if m.IsComplete {
			fmt.Fprintf(b, "%d. 🔺 *Triangle swap* (complete)\n", n)
		} else {
			fmt.Fprintf(b, "%d. 🔺 *Triangle swap* (missing link)\n", n)
		}
		writeContact(b, other)
		b.WriteString("\n")
		writeContact(b, third)
		if !m.IsComplete {
			fmt.Fprintf(b, "\n   ⛓ Missing link: %s → %s", countyName(m.MissingFrom, third.County), countyName(m.MissingTo, "your county"))
		}
	}
}

func writeContact(b *strings.Builder, c Contact) {
	fmt.Fprintf(b, "   👤 *%s*\n   🏫 School: %s\n   📍 Location: %s\n   📞 Phone: %s", c.Name, orNotSet(c.School), orNotSet(c.County), MaskPhone(c.Phone))
	if len(c.Subjects) > 0 {
		subjects := c.Subjects
		if len(subjects) > 3 {
			subjects = subjects[:3]
		}
		fmt.Fprintf(b, "\n   📚 Subjects: %s", strings.Join(subjects, ", "))
	}
}

func contactOf(ref swap.Ref, contacts map[swap.Ref]Contact) Contact {
	if c, ok := contacts[ref]; ok {
		return c
	}
	return Contact{Ref: ref, Name: ref.String()}
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}

func countyName(c *location.County, fallback string) string {
	if c == nil || c.Name == "" {
		return fallback
	}
	return c.Name
}

// ContactOf builds the display data of an account or listing.
func ContactOf(src swap.Source) Contact {
	c := Contact{Ref: src.Ref()}
	var subjects []swap.Subject
	switch s := src.(type) {
	case swap.Account:
		c.Name = s.FullName()
		subjects = s.Subjects
		if s.Profile != nil {
			c.Phone = s.Profile.Phone
			c.School, c.County = schoolAndCounty(s.Profile.School, nil)
		}
	case swap.Listing:
		c.Name = s.Names
		c.Phone = s.Phone
		subjects = s.Subjects
		c.School, c.County = schoolAndCounty(s.School, s.CurrentCounty)
	}
	for _, subj := range subjects {
		c.Subjects = append(c.Subjects, subj.Name)
	}
	return c
}

func schoolAndCounty(school *location.School, county *location.County) (string, string) {
	var schoolName, countyName string
	if school != nil {
		schoolName = school.Name
	}
	if county != nil && !county.IsZero() {
		countyName = county.Name
	} else if res := location.ResolveCounty(school); res.OK() {
		countyName = res.County.Name
	}
	return schoolName, countyName
}
