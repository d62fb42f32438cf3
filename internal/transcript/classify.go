package transcript

import (
	"regexp"
	"strings"
)

// EventKind tags a classified line.
type EventKind int

const (
	Unrecognized EventKind = iota
	SessionStart
	SessionClose
	IdentityAnnounce
	Noise
	OtherMessage
	SelfMessage
)

func (k EventKind) String() string {
	switch k {
	case SessionStart:
		return "session_start"
	case SessionClose:
		return "session_close"
	case IdentityAnnounce:
		return "identity_announce"
	case Noise:
		return "noise"
	case OtherMessage:
		return "other_message"
	case SelfMessage:
		return "self_message"
	default:
		return "unrecognized"
	}
}

// LineEvent is the result of classifying one line. Which fields are set depends on Kind:
// Timestamp for start/close markers, Identity for announces and messages,
// Time and Text for messages, Rule for noise.
type LineEvent struct {
	Kind      EventKind
	Timestamp string
	Identity  string
	Time      string
	Text      string
	Rule      string
}

var (
	sessionStartRe = regexp.MustCompile(`^Session Start: (.+)$`)
	sessionCloseRe = regexp.MustCompile(`^Session Close: (.+)$`)
	sessionIdentRe = regexp.MustCompile(`^Session Ident: (\S+)`)

	// [HH:MM] [nick] text
	otherMessageRe = regexp.MustCompile(`^\[(\d{1,2}:\d{2})\]\s+\[([^\]]+)\]\s+(.*)$`)
	// [HH:MM] (nick) text
	selfMessageRe = regexp.MustCompile(`^\[(\d{1,2}:\d{2})\]\s+\(([^)]+)\)\s+(.*)$`)
)

// Classifier turns normalized lines into LineEvents.
type Classifier struct {
	noise *RuleSet
}

// NewClassifier returns a classifier using the given noise rules, or the defaults if nil.
func NewClassifier(noise *RuleSet) *Classifier {
	if noise == nil {
		noise = DefaultRules()
	}
	return &Classifier{noise: noise}
}

// Classify decides what a normalized line is. Markers are checked first, then noise,
// then the two message forms; noise must run before message matching because some
// status lines are message-shaped.
func (c *Classifier) Classify(line string) LineEvent {
	line = strings.TrimRight(line, "\r\n")

	if m := sessionStartRe.FindStringSubmatch(line); m != nil {
		return LineEvent{Kind: SessionStart, Timestamp: m[1]}
	}
	if m := sessionCloseRe.FindStringSubmatch(line); m != nil {
		return LineEvent{Kind: SessionClose, Timestamp: m[1]}
	}
	if m := sessionIdentRe.FindStringSubmatch(line); m != nil {
		return LineEvent{Kind: IdentityAnnounce, Identity: m[1]}
	}

	trimmed := strings.TrimSpace(line)
	if rule, ok := c.noise.Match(trimmed); ok {
		return LineEvent{Kind: Noise, Rule: rule}
	}

	if m := otherMessageRe.FindStringSubmatch(trimmed); m != nil {
		return LineEvent{Kind: OtherMessage, Time: m[1], Identity: m[2], Text: strings.TrimSpace(m[3])}
	}
	if m := selfMessageRe.FindStringSubmatch(trimmed); m != nil {
		return LineEvent{Kind: SelfMessage, Time: m[1], Identity: m[2], Text: strings.TrimSpace(m[3])}
	}
	return LineEvent{Kind: Unrecognized}
}
