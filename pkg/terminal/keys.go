package terminal

import "unicode/utf8"

// Key identifies a parsed key press.
type Key uint8

const (
	KeyNone Key = iota
	KeyRune     // printable character, see KeyEvent.Rune
	KeyEscape
	KeyCtrlC
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
)

var keyNames = map[Key]string{
	KeyNone:     "None",
	KeyRune:     "Rune",
	KeyEscape:   "Esc",
	KeyCtrlC:    "Ctrl+C",
	KeyEnter:    "Enter",
	KeyUp:       "Up",
	KeyDown:     "Down",
	KeyLeft:     "Left",
	KeyRight:    "Right",
	KeyHome:     "Home",
	KeyEnd:      "End",
	KeyPageUp:   "PgUp",
	KeyPageDown: "PgDn",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
)

// KeyEvent is one parsed key press.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Modifier
}

// Rune builds a printable key event.
func Rune(r rune) KeyEvent {
	return KeyEvent{Key: KeyRune, Rune: r}
}

// csiKeys maps the body of "ESC [ <body>" sequences.
var csiKeys = map[string]Key{
	"A":  KeyUp,
	"B":  KeyDown,
	"C":  KeyRight,
	"D":  KeyLeft,
	"H":  KeyHome,
	"F":  KeyEnd,
	"1~": KeyHome,
	"7~": KeyHome,
	"4~": KeyEnd,
	"8~": KeyEnd,
	"5~": KeyPageUp,
	"6~": KeyPageDown,
}

// ss3Keys maps "ESC O <x>" sequences sent in application cursor mode.
var ss3Keys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

const maxCSILen = 16

// ParseKeys decodes raw terminal input. It returns the events found and how
// many bytes were consumed; an incomplete trailing sequence (including a lone
// ESC) is left unconsumed so the caller can wait for more bytes.
func ParseKeys(data []byte) ([]KeyEvent, int) {
	var out []KeyEvent
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case b == 0x1b:
			n, ev := parseEscape(data[i:])
			if n == 0 {
				return out, i
			}
			if ev.Key != KeyNone {
				out = append(out, ev)
			}
			i += n
		case b == 0x03:
			out = append(out, KeyEvent{Key: KeyCtrlC, Mod: ModCtrl})
			i++
		case b == '\r' || b == '\n':
			out = append(out, KeyEvent{Key: KeyEnter})
			i++
		case b >= 0x20 && b < 0x7f:
			out = append(out, Rune(rune(b)))
			i++
		case b >= 0x80:
			n := utf8SeqLen(b)
			if n == 0 {
				i++
				continue
			}
			if i+n > len(data) {
				return out, i
			}
			r, size := utf8.DecodeRune(data[i : i+n])
			out = append(out, Rune(r))
			i += size
		default:
			// Other control bytes carry no binding.
			i++
		}
	}
	return out, i
}

func parseEscape(data []byte) (int, KeyEvent) {
	if len(data) < 2 {
		return 0, KeyEvent{}
	}
	switch data[1] {
	case 0x1b:
		return 1, KeyEvent{Key: KeyEscape}
	case '[':
		return parseCSI(data)
	case 'O':
		if len(data) < 3 {
			return 0, KeyEvent{}
		}
		return 3, KeyEvent{Key: ss3Keys[data[2]]}
	}
	if data[1] >= 0x20 && data[1] < 0x7f {
		return 2, KeyEvent{Key: KeyRune, Rune: rune(data[1]), Mod: ModAlt}
	}
	return 1, KeyEvent{Key: KeyEscape}
}

func parseCSI(data []byte) (int, KeyEvent) {
	limit := len(data)
	if limit > maxCSILen {
		limit = maxCSILen
	}
	for end := 2; end < limit; end++ {
		b := data[end]
		if isCSIFinal(b) {
			return end + 1, KeyEvent{Key: csiKeys[csiBody(data[2:end+1])]}
		}
		if b < 0x20 || b > 0x7e {
			// Malformed; drop the introducer.
			return 2, KeyEvent{}
		}
	}
	if len(data) >= maxCSILen {
		return 2, KeyEvent{}
	}
	return 0, KeyEvent{}
}

// csiBody strips modifier parameters ("1;5A" -> "A") so Ctrl/Shift variants
// of the navigation keys resolve like the plain ones.
func csiBody(body []byte) string {
	s := string(body)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ';' {
			final := s[len(s)-1:]
			lead := s[:i]
			if final == "~" {
				return lead + final
			}
			return final
		}
	}
	return s
}

func isCSIFinal(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~'
}

func utf8SeqLen(b byte) int {
	switch {
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	}
	return 0
}
