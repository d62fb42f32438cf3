package transcript

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
)

const maxLineSize = 1024 * 1024 // 1MB

// Parser reads transcript files into Sessions.
type Parser struct {
	classifier *Classifier
	encodings  []string
	logger     *slog.Logger
}

// NewParser creates a parser. A nil classifier uses the default noise rules and
// empty encodings fall back to DefaultEncodings.
func NewParser(c *Classifier, encodings []string, logger *slog.Logger) *Parser {
	if c == nil {
		c = NewClassifier(nil)
	}
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{classifier: c, encodings: encodings, logger: logger}
}

// ParseFile reads and decodes the file at path and returns its sessions as a lazy
// sequence. Each call re-reads the file. A *DecodeError means no configured
// encoding could read it.
func (p *Parser) ParseFile(path string) (iter.Seq[Session], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	text, enc, err := Decode(path, data, p.encodings)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("decoded transcript", "file", path, "encoding", enc, "bytes", len(data))

	return p.sessions(path, text), nil
}

// Parse is ParseFile over already-decoded text; path only names the source.
func (p *Parser) Parse(path, text string) iter.Seq[Session] {
	return p.sessions(path, text)
}

func (p *Parser) sessions(path, text string) iter.Seq[Session] {
	return func(yield func(Session) bool) {
		b := NewBuilder(path, p.logger)

		scanner := bufio.NewScanner(strings.NewReader(text))
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			b.Feed(p.classifier.Classify(Normalize(scanner.Text())))
			for _, s := range b.Drain() {
				if !yield(s) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			// Only an over-long line gets here; keep what was built so far.
			p.logger.Warn("transcript scan stopped", "file", path, "error", err)
		}

		b.Finish()
		for _, s := range b.Drain() {
			if !yield(s) {
				return
			}
		}
	}
}
