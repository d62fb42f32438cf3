package transcript

import (
	"regexp"
	"strings"
)

// colorCode matches ^C optionally followed by a foreground and background colour.
var colorCode = regexp.MustCompile(`\x03(\d{1,2}(,\d{1,2})?)?`)

// decorations are box-drawing and symbol glyphs mIRC scripts use for banners.
var decorations = regexp.MustCompile(`[─│┌┐└┘├┤┬┴┼═║╒╓╔╕╖╗╘╙╚╛╜╝╞╟╠╡╢╣╤╥╦╧╨╩╪╫╬▀▄█▌▐░▒▓■□▪▫►◄▲▼◊○●◘◙☺☻♠♣♥♦♪♫☼↕‼¶§▬↨↑↓→←∟↔⌂]+`)

// toggles strips bold, italic, underline, strikethrough, reverse and reset.
var toggles = strings.NewReplacer(
	"\x02", "",
	"\x1d", "",
	"\x1f", "",
	"\x1e", "",
	"\x16", "",
	"\x0f", "",
)

// Normalize removes mIRC formatting codes and decorative glyphs from a raw line.
// Whitespace is left alone.
func Normalize(raw string) string {
	s := colorCode.ReplaceAllString(raw, "")
	s = toggles.Replace(s)
	return decorations.ReplaceAllString(s, "")
}
