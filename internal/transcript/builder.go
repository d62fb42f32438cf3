package transcript

import (
	"fmt"
	"log/slog"
	"sort"
)

// reservedIdents are window names mIRC writes in Session Ident lines that are
// not conversation partners.
var reservedIdents = map[string]bool{
	"Status": true,
	"Window": true,
}

// Builder accumulates classified lines of one file into Sessions.
// It is not safe for concurrent use.
type Builder struct {
	sourceFile string
	stem       string
	origin     Origin
	logger     *slog.Logger

	current      *Session
	participants map[string]struct{}
	counter      int
	done         []Session
}

// NewBuilder creates a builder for the transcript at path.
func NewBuilder(path string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		sourceFile: path,
		stem:       fileStem(path),
		origin:     OriginFromPath(path),
		logger:     logger,
	}
}

// Feed applies one event. Completed sessions are queued for Drain.
func (b *Builder) Feed(ev LineEvent) {
	if ev.Kind == SessionStart {
		b.flush()
		b.open(ev.Timestamp)
		return
	}
	if b.current == nil {
		return
	}

	switch ev.Kind {
	case SessionClose:
		// A close only records the end time; the session is flushed by the
		// next start or end of input.
		if t, ok := ParseTimestamp(ev.Timestamp); ok {
			b.current.EndTime = t
		} else {
			b.logger.Debug("unparsed session close", "file", b.sourceFile, "value", ev.Timestamp)
		}
	case IdentityAnnounce:
		if b.origin.Channel != "" {
			return
		}
		if len(ev.Identity) > 0 && ev.Identity[0] == '#' {
			return
		}
		if reservedIdents[ev.Identity] {
			return
		}
		b.current.TargetNick = ev.Identity
	case OtherMessage, SelfMessage:
		if ev.Text == "" {
			return
		}
		b.current.Messages = append(b.current.Messages, Message{
			Time:   ev.Time,
			Nick:   ev.Identity,
			Text:   ev.Text,
			IsSelf: ev.Kind == SelfMessage,
		})
		b.participants[ev.Identity] = struct{}{}
	}
}

// Finish flushes the open session, if any. Call once at end of input.
func (b *Builder) Finish() {
	b.flush()
}

// Drain returns and clears the completed sessions.
func (b *Builder) Drain() []Session {
	out := b.done
	b.done = nil
	return out
}

func (b *Builder) open(marker string) {
	b.counter++
	s := &Session{
		SessionID:  fmt.Sprintf("%s_%04d", b.stem, b.counter),
		SourceFile: b.sourceFile,
		Channel:    b.origin.Channel,
		TargetNick: b.origin.TargetNick,
		Network:    b.origin.Network,
	}
	if t, ok := ParseTimestamp(marker); ok {
		s.StartTime = t
	} else {
		b.logger.Debug("unparsed session start", "file", b.sourceFile, "value", marker)
	}
	b.current = s
	b.participants = make(map[string]struct{})
}

// flush freezes the open session. Sessions without messages are discarded.
func (b *Builder) flush() {
	if b.current == nil {
		return
	}
	s := b.current
	b.current = nil
	if len(s.Messages) == 0 {
		return
	}
	s.Participants = make([]string, 0, len(b.participants))
	for nick := range b.participants {
		s.Participants = append(s.Participants, nick)
	}
	sort.Strings(s.Participants)
	b.done = append(b.done, *s)
}
