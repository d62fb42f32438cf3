package transcript

import (
	"strings"
	"time"
)

// markerLayouts are the date forms mIRC writes after Session Start/Close.
var markerLayouts = []string{
	"Mon Jan 02 15:04:05 2006", // Tue Dec 09 18:27:34 2003
	"Mon Jan 02 15:04:05 06",   // Tue Dec 09 18:27:34 03
	"Mon Jan  2 15:04:05 2006", // Tue Dec  9 18:27:34 2003
	"Mon Jan 2 15:04:05 2006",
}

// ParseTimestamp parses a session marker date. The first layout that parses wins.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range markerLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
