package calendar

import (
	"fmt"
	"strings"
	"time"

	"ResearchAgent/internal/domain"
)

// DefaultDuration is the length of a follow-up event.
const DefaultDuration = 30 * time.Minute

// Event is a calendar entry proposed for a research result. Nothing is sent
// to a calendar provider; callers copy the text themselves.
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// FormatEvent builds a follow-up event for result starting at start.
func FormatEvent(result domain.ResearchResult, start time.Time) Event {
	title := result.Title
	if title == "" || title == domain.PendingTitle {
		title = result.URL
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Source: %s\n", result.URL)
	if result.Summary != "" {
		fmt.Fprintf(&desc, "\n%s\n", result.Summary)
	}
	if len(result.ActionableItems) > 0 {
		desc.WriteString("\nAction items:\n")
		for _, item := range result.ActionableItems {
			fmt.Fprintf(&desc, "- %s\n", item)
		}
	}

	return Event{
		Title:       "Review: " + title,
		Start:       start,
		End:         start.Add(DefaultDuration),
		Description: strings.TrimRight(desc.String(), "\n"),
	}
}

// NextSlot rounds now up to the next full hour.
func NextSlot(now time.Time) time.Time {
	slot := now.Truncate(time.Hour)
	if !slot.After(now) {
		slot = slot.Add(time.Hour)
	}
	return slot
}

// String renders the event as plain text.
func (e Event) String() string {
	return fmt.Sprintf("%s\n%s - %s\n\n%s",
		e.Title,
		e.Start.Format(time.RFC3339),
		e.End.Format(time.RFC3339),
		e.Description,
	)
}
