package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/xecut-space/xecut-bot/internal/visit"
)

// person is a visit's author with everything already resolved through the
// Telegram API, so the formatting below stays pure and testable.
type person struct {
	Name     string
	URL      string
	Resident bool
}

// entry pairs a visit with its resolved author.
type entry struct {
	Person person
	Visit  visit.Visit
}

// formatUser renders a linked user name, with the resident mark.
func formatUser(p person) string {
	mark := ""
	if p.Resident {
		mark = "Ⓡ"
	}
	return fmt.Sprintf(`<a href="%s">%s</a>%s`, p.URL, html.EscapeString(p.Name), mark)
}

// formatVisitLine renders one visit: linked name, purpose, status.
func formatVisitLine(e entry) string {
	var b strings.Builder
	b.WriteString(formatUser(e.Person))
	if e.Visit.Purpose != "" {
		fmt.Fprintf(&b, " хочет %s", html.EscapeString(e.Visit.Purpose))
	}
	switch e.Visit.Status {
	case visit.Planned:
		b.WriteString(" (запланировано)")
	case visit.CheckedIn:
		b.WriteString(" (зашёл)")
	case visit.CheckedOut:
		b.WriteString(" (ушёл)")
	}
	return b.String()
}

// sortEntries orders by day, residents first within a day, then by name so
// repeated renders of the same data produce identical text.
func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Visit.Day != entries[j].Visit.Day {
			return entries[i].Visit.Day < entries[j].Visit.Day
		}
		if entries[i].Person.Resident != entries[j].Person.Resident {
			return entries[i].Person.Resident
		}
		return entries[i].Person.Name < entries[j].Person.Name
	})
}

// formatVisits renders entries grouped by day with a dated header per group.
func formatVisits(entries []entry) string {
	if len(entries) == 0 {
		return "Нет никаких планов"
	}

	sortEntries(entries)

	var groups []string
	for i := 0; i < len(entries); {
		day := entries[i].Visit.Day
		var lines []string
		for ; i < len(entries) && entries[i].Visit.Day == day; i++ {
			lines = append(lines, formatVisitLine(entries[i]))
		}
		groups = append(groups, fmt.Sprintf("Планировали зайти %s (%s):\n%s",
			day, day.Weekday(), strings.Join(lines, "\n")))
	}

	return strings.Join(groups, "\n\n")
}

// renderStatusText builds the live status message: current occupancy first,
// then near-term plans.
func renderStatusText(today visit.Day, entries []entry) string {
	var checkedIn, planned []entry
	for _, e := range entries {
		switch {
		case e.Visit.Day == today && e.Visit.Status == visit.CheckedIn:
			checkedIn = append(checkedIn, e)
		case e.Visit.Status == visit.Planned:
			planned = append(planned, e)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "В хакспейсе сейчас: %d\n", len(checkedIn))
	sortEntries(checkedIn)
	for _, e := range checkedIn {
		b.WriteString(formatVisitLine(e))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formatVisits(planned))
	return b.String()
}
