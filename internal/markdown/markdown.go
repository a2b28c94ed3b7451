// Package markdown renders the tables and pages the bot publishes, and
// splices generated sections into hand-maintained sidebar text.
package markdown

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JakeFAU/dojobot/internal/dojo"
)

// ErrSectionNotFound is returned when a document lacks a section's markers.
var ErrSectionNotFound = errors.New("section markers not found")

const (
	leaderboardHeader = "Rank | User | Dojo Points \n:-: | :- | :-: \n"
	livestreamHeader  = "Twitch | 👁 | Streamer \n:- | :- | :- \n"
	eventsHeader      = "Name | Starts (UTC) | Location\n:-- | :-: | :--\n"
	eventTimeLayout   = "Mon Jan _2 03:04 PM"
)

// Stream is one row of the livestream table.
type Stream struct {
	Title   string
	Viewers int
	Name    string
	URL     string
}

// Event is one row of the events table.
type Event struct {
	Title    string
	Start    time.Time
	Location string
}

// MonthTag formats t as "Oct '26".
func MonthTag(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s '%02d", t.Format("Jan"), t.Year()%100)
}

// WidgetTitle appends the month tag to base: "Dojo Leaderboard (Oct '26)".
func WidgetTitle(base string, t time.Time) string {
	return fmt.Sprintf("%s (%s)", base, MonthTag(t))
}

// Footer is the horizontal rule and superscript "last updated" line.
func Footer(updated time.Time, bot string) string {
	return fmt.Sprintf("***\n^(Last updated: %s UTC by u/%s)\n", updated.UTC().Format(time.ANSIC), bot)
}

// LeaderboardTable renders ranked entries. It returns "" when there are no
// entries so callers never publish an empty table.
func LeaderboardTable(entries []dojo.LeaderboardEntry, updated time.Time, bot string) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(leaderboardHeader)
	for _, e := range entries {
		fmt.Fprintf(&b, "%d | u/%s | %d\n", e.Rank, e.Author, e.Score)
	}
	b.WriteString(Footer(updated, bot))
	return b.String()
}

// LivestreamTable renders live channels. Titles are cut at the first "|"
// and truncated to maxTitle runes. It returns "" when there are no streams.
func LivestreamTable(streams []Stream, maxTitle int, bot string) string {
	if len(streams) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(livestreamHeader)
	for _, s := range streams {
		fmt.Fprintf(&b, "[%s](%s)|%d|[%s](%s)\n", shortTitle(s.Title, maxTitle), s.URL, s.Viewers, s.Name, s.URL)
	}
	fmt.Fprintf(&b, "***\n^(This widget is auto-updated by u/%s.)", bot)
	return b.String()
}

func shortTitle(title string, max int) string {
	if i := strings.Index(title, "|"); i >= 0 {
		title = title[:i]
	}
	if max > 0 && utf8.RuneCountInString(title) > max {
		runes := []rune(title)
		title = string(runes[:max]) + "..."
	}
	return title
}

// EventsTable renders upcoming events with UTC start times.
func EventsTable(events []Event, updated time.Time, bot string) string {
	var b strings.Builder
	b.WriteString(eventsHeader)
	for _, e := range events {
		fmt.Fprintf(&b, "%s | %s | %s\n", cell(e.Title), e.Start.UTC().Format(eventTimeLayout), cell(e.Location))
	}
	b.WriteString(Footer(updated, bot))
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// MonthlyWikiPage renders a month's final standings followed by, for each
// leader, links to the comments that earned their points. At most
// linksPerLeader links are listed per author; zero lists them all.
func MonthlyWikiPage(month time.Time, entries []dojo.LeaderboardEntry, links map[string][]string, linksPerLeader int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dojo Leaderboard: %s\n\n", month.UTC().Format("January 2006"))
	if len(entries) == 0 {
		b.WriteString("No Dojo points were earned this month.\n")
		return b.String()
	}
	b.WriteString(leaderboardHeader)
	for _, e := range entries {
		fmt.Fprintf(&b, "%d | u/%s | %d\n", e.Rank, e.Author, e.Score)
	}
	for _, e := range entries {
		urls := append([]string(nil), links[e.Author]...)
		if len(urls) == 0 {
			continue
		}
		sort.Strings(urls)
		fmt.Fprintf(&b, "\n## u/%s\n\n", e.Author)
		shown := urls
		if linksPerLeader > 0 && len(shown) > linksPerLeader {
			shown = shown[:linksPerLeader]
		}
		for i, u := range shown {
			fmt.Fprintf(&b, "%d. [comment](%s)\n", i+1, u)
		}
		if more := len(urls) - len(shown); more > 0 {
			fmt.Fprintf(&b, "\n^(and %d more)\n", more)
		}
	}
	return b.String()
}

// SectionMarkers returns the start and end markers for a named section:
// "[](#livestreams-start)" and "[](#livestreams-end)".
func SectionMarkers(name string) (string, string) {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return "[](#" + slug + "-start)", "[](#" + slug + "-end)"
}

// ReplaceSection replaces everything between the section's markers with
// body. The markers themselves are kept.
func ReplaceSection(doc, name, body string) (string, error) {
	start, end := SectionMarkers(name)
	i := strings.Index(doc, start)
	if i < 0 {
		return "", fmt.Errorf("%s: %w", start, ErrSectionNotFound)
	}
	from := i + len(start)
	j := strings.Index(doc[from:], end)
	if j < 0 {
		return "", fmt.Errorf("%s: %w", end, ErrSectionNotFound)
	}
	to := from + j
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return doc[:from] + "\n" + body + doc[to:], nil
}
