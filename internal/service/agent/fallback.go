package agent

import (
	"fmt"
	"strings"

	"github.com/sandevgo/vrmentor/internal/core"
)

const (
	replyGreeting = "Hello! I'm your VR app recommender. What would you like to learn?"
	replyThanks   = "You're welcome! Let me know if you need more recommendations."
	replyHelp     = "I can help you find VR apps for Meta Quest that support your learning goals. Just tell me what you want to learn!"
	replyTrouble  = "I'm having trouble processing your request. Could you try rephrasing what you'd like to learn?"
	replyNoItems  = "I couldn't find specific VR apps matching your query. Could you try describing what you want to learn in different words?"
	replyFound    = "I found some VR apps for you."

	fallbackListSize = 5
)

type intent int

const (
	intentOther intent = iota
	intentGreeting
	intentThanks
	intentHelp
)

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true, "greetings": true, "howdy": true}

func detectIntent(message string) intent {
	lower := strings.ToLower(message)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if greetings[w] {
			return intentGreeting
		}
	}
	switch {
	case strings.Contains(lower, "thank"):
		return intentThanks
	case strings.Contains(lower, "help"), strings.Contains(lower, "what can"):
		return intentHelp
	}
	return intentOther
}

func cannedReply(i intent) string {
	switch i {
	case intentGreeting:
		return replyGreeting
	case intentThanks:
		return replyThanks
	case intentHelp:
		return replyHelp
	default:
		return replyTrouble
	}
}

// FormatItems renders a deterministic markdown reply for a search result.
func FormatItems(items []core.ItemMatch) string {
	if len(items) == 0 {
		return replyNoItems
	}

	var b strings.Builder
	b.WriteString("Here are VR apps that match your interests:\n\n")

	bridged := false
	for _, it := range items[:min(len(items), fallbackListSize)] {
		fmt.Fprintf(&b, "- **%s**", it.Item.Name)
		if it.Item.Category != "" {
			fmt.Fprintf(&b, " (%s)", it.Item.Category)
		}
		fmt.Fprintf(&b, " - %d%% match\n", Percent(it.Score))
		if it.Reasoning != "" {
			fmt.Fprintf(&b, "  _%s_\n", it.Reasoning)
		}
		bridged = bridged || it.IsBridged()
	}

	if bridged {
		b.WriteString("\nNo app covers your exact topic yet, so these are the closest related matches.\n")
	}
	b.WriteString("\nWould you like more details about any of these apps?")
	return b.String()
}
