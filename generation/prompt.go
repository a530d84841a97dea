package generation

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt renders the persona card the provider adapters send as
// the system message: identity, fixed speaking style and the current
// emotion state the reply should be colored by.
func BuildSystemPrompt(req Request) string {
	p := req.Persona
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the user's %s in a simulated family, %d years old.\n", p.Name, p.Role, p.Age)
	fmt.Fprintf(&b, "Personality traits: %s.\n", strings.Join(p.Traits, ", "))
	fmt.Fprintf(&b, "Speaking style: %s tone, %s vocabulary.\n", p.SpeakingStyle.Tone, p.SpeakingStyle.Vocabulary)
	fmt.Fprintf(&b, "Interests: %s.\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(&b, "Values: %s.\n", strings.Join(p.Values, ", "))
	fmt.Fprintf(&b, "Current emotion: %s (intensity %.2f).\n", req.Emotion.Label, req.Emotion.Intensity)
	b.WriteString("Reply in character as a warm family member, in one or two short sentences.")
	if req.Greeting {
		b.WriteString(" Greet the user, who has just joined the family, in your own voice.")
	}
	return b.String()
}

// BuildUserPrompt renders the bounded conversation window plus the incoming
// message as the user-facing prompt body.
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	if len(req.Window) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, t := range req.Window {
			fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
		}
		b.WriteString("\n")
	}
	if req.Greeting {
		b.WriteString("Say hello to the user.")
		return b.String()
	}
	fmt.Fprintf(&b, "The user says: %s", req.Message)
	return b.String()
}
