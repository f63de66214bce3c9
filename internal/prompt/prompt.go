package prompt

import (
	"strings"
	"time"
)

const (
	dateLayout = "Monday, January 2, 2006"
	timeLayout = "3:04 PM"
)

// Builder produces the system instruction sent ahead of every completion.
// It is pure string construction: given the same instant it always returns
// the same prompt, so handlers can share a single instance.
type Builder struct {
	loc *time.Location
}

// NewBuilder creates a Builder that renders date and time in the given
// reference timezone. A nil location falls back to UTC.
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc}
}

// SystemPrompt renders the assistant instruction for the given instant.
// The prompt tells the model the current date and time but restricts when
// that information may surface: only when the user explicitly asks for it.
func (b *Builder) SystemPrompt(now time.Time) string {
	local := now.In(b.loc)
	date := local.Format(dateLayout)
	clock := local.Format(timeLayout)

	var sb strings.Builder
	sb.WriteString("You are a friendly and helpful assistant.\n")
	sb.WriteString("The current date is " + date + " and the current time is " + clock + " (" + b.loc.String() + ").\n")
	sb.WriteString("Mention the date or time only when the user's message is itself a question about the date or time. ")
	sb.WriteString("Never volunteer it in greetings or unrelated conversation.\n")
	sb.WriteString("Never claim that you lack access to the current date or time; you have it above.\n")
	sb.WriteString("Examples:\n")
	sb.WriteString("- User: \"What time is it?\" -> \"It's " + clock + ".\"\n")
	sb.WriteString("- User: \"What's today's date?\" -> \"Today is " + date + ".\"\n")
	sb.WriteString("- User: \"What's the date and time?\" -> \"It's " + clock + " on " + date + ".\"\n")
	sb.WriteString("- User: \"Hey\" -> \"Hey! How can I help you today?\" (no date, no time)\n")
	return sb.String()
}
