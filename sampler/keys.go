package sampler

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// namedKeys maps multi-character key names reported by the window system or
// a browser-style key channel onto the character used in binding lists.
// Lookups are lower-cased.
var namedKeys = map[string]string{
	"space":        " ",
	"spacebar":     " ",
	"semicolon":    ";",
	"comma":        ",",
	"period":       ".",
	"slash":        "/",
	"backslash":    "\\",
	"minus":        "-",
	"equal":        "=",
	"equals":       "=",
	"quote":        "'",
	"apostrophe":   "'",
	"backquote":    "`",
	"grave":        "`",
	"leftbracket":  "[",
	"rightbracket": "]",
	"bracketleft":  "[",
	"bracketright": "]",
}

// legacyKeyCodes covers the non-alphanumeric numeric key codes older
// keyboard event sources report.
var legacyKeyCodes = map[int]string{
	32:  " ",
	186: ";",
	187: "=",
	188: ",",
	189: "-",
	190: ".",
	191: "/",
	192: "`",
	219: "[",
	220: "\\",
	221: "]",
	222: "'",
}

// Normalize maps a raw input token to the canonical key used to address a
// binding. It never fails; tokens that cannot be mapped yield "", which no
// binding can use.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(raw)
	if size == len(raw) {
		return upperPrintable(r)
	}

	lower := strings.ToLower(raw)
	if k, ok := namedKeys[lower]; ok {
		return k
	}
	if k, ok := prefixedKey(lower); ok {
		return k
	}
	if k, ok := keyCode(raw); ok {
		return k
	}

	return upperPrintable(r)
}

func upperPrintable(r rune) string {
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// prefixedKey handles "KeyA", "Digit1", "Numpad7" and SDL's "Keypad 7".
func prefixedKey(lower string) (string, bool) {
	for _, prefix := range []string{"key", "digit", "numpad", "keypad "} {
		rest := strings.TrimPrefix(lower, prefix)
		if rest == lower || len(rest) != 1 {
			continue
		}
		c := rest[0]
		if prefix == "key" && c >= 'a' && c <= 'z' {
			return strings.ToUpper(rest), true
		}
		if prefix != "key" && c >= '0' && c <= '9' {
			return rest, true
		}
	}
	return "", false
}

func keyCode(raw string) (string, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", false
		}
	}

	code, err := strconv.Atoi(raw)
	if err != nil {
		return "", false
	}

	switch {
	case code >= 'A' && code <= 'Z':
		return string(rune(code)), true
	case code >= '0' && code <= '9':
		return string(rune(code)), true
	}

	k, ok := legacyKeyCodes[code]
	return k, ok
}
