package command

import "strings"

type Mode int

const (
	Prefixed Mode = iota
	Prefixless
)

func (m Mode) String() string {
	if m == Prefixless {
		return "prefixless"
	}
	return "prefixed"
}

type Invocation struct {
	Mode Mode
	Name string
	Args []string
}

// Parse classifies a message. The second return is false for ordinary chat.
//
// Prefixed messages parse for any name; the dispatcher drops unknown ones.
// Without the prefix only afk, moderation and music commands are recognized.
func Parse(text, prefix string) (Invocation, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Invocation{}, false
	}

	if prefix != "" && strings.HasPrefix(text, prefix) {
		fields := strings.Fields(text[len(prefix):])
		if len(fields) == 0 {
			return Invocation{}, false
		}
		return Invocation{
			Mode: Prefixed,
			Name: Canonical(strings.ToLower(fields[0])),
			Args: fields[1:],
		}, true
	}

	fields := strings.Fields(text)
	name := Canonical(strings.ToLower(fields[0]))
	switch KindOf(name) {
	case KindAFK, KindModeration, KindMusic:
		return Invocation{Mode: Prefixless, Name: name, Args: fields[1:]}, true
	}
	return Invocation{}, false
}
