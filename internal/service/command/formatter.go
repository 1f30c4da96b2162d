package command

import (
	"fmt"
	"strings"
)

// reply builds a Markdown command response that reads well in the terminal and in Telegram.
type reply struct {
	b strings.Builder
}

func newReply(title string) *reply {
	r := &reply{}
	fmt.Fprintf(&r.b, "**%s**\n", title)
	return r
}

func (r *reply) field(label string, value any) *reply {
	fmt.Fprintf(&r.b, "- %s: `%v`\n", label, value)
	return r
}

func (r *reply) bullets(items ...string) *reply {
	for _, it := range items {
		fmt.Fprintf(&r.b, "- %s\n", it)
	}
	return r
}

func (r *reply) line(text string) *reply {
	r.b.WriteString(strings.TrimRight(text, "\n") + "\n")
	return r
}

func (r *reply) hint(text string) *reply {
	fmt.Fprintf(&r.b, "\n_%s_\n", text)
	return r
}

func (r *reply) String() string {
	return r.b.String()
}

func done(msg string) string {
	return "✅ " + msg + "\n"
}

func failure(err error) string {
	return "❌ " + err.Error() + "\n"
}

func usage(syntax string) string {
	return fmt.Sprintf("**Usage**: `%s`\n", syntax)
}
