package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Voice formatting helpers. Everything returned here is read aloud by the
// platform's TTS, so formats favor speakable text over compact notation.

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

var natoAlphabet = map[rune]string{
	'A': "Alpha", 'B': "Bravo", 'C': "Charlie", 'D': "Delta", 'E': "Echo",
	'F': "Foxtrot", 'G': "Golf", 'H': "Hotel", 'I': "India", 'J': "Juliett",
	'K': "Kilo", 'L': "Lima", 'M': "Mike", 'N': "November", 'O': "Oscar",
	'P': "Papa", 'Q': "Quebec", 'R': "Romeo", 'S': "Sierra", 'T': "Tango",
	'U': "Uniform", 'V': "Victor", 'W': "Whiskey", 'X': "X-ray",
	'Y': "Yankee", 'Z': "Zulu",
}

// FormatISODuration turns an ISO-8601 duration like "PT2H30M" into
// "2 hours 30 minutes". Unparseable input is returned unchanged.
func FormatISODuration(iso string) string {
	m := isoDurationRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(iso)))
	if m == nil {
		return iso
	}
	var parts []string
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		if h == 1 {
			parts = append(parts, "1 hour")
		} else if h > 0 {
			parts = append(parts, fmt.Sprintf("%d hours", h))
		}
	}
	if m[2] != "" {
		min, _ := strconv.Atoi(m[2])
		if min == 1 {
			parts = append(parts, "1 minute")
		} else if min > 0 {
			parts = append(parts, fmt.Sprintf("%d minutes", min))
		}
	}
	if len(parts) == 0 {
		return iso
	}
	return strings.Join(parts, " ")
}

// FormatClock12 turns a 24-hour "HH:MM" (or the time portion of an ISO
// datetime like "2026-10-01T14:30:00") into "2:30 PM".
func FormatClock12(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, 'T'); i >= 0 {
		t = t[i+1:]
	}
	parts := strings.SplitN(t, ":", 3)
	if len(parts) < 2 {
		return t
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return t
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return t
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, min, suffix)
}

// SpellPhonetic reads a confirmation code letter by letter using the NATO
// alphabet ("Q4X" -> "Q as in Quebec, 4, X as in X-ray") so callers can
// write it down reliably.
func SpellPhonetic(code string) string {
	var parts []string
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if word, ok := natoAlphabet[r]; ok {
			parts = append(parts, fmt.Sprintf("%c as in %s", r, word))
		} else if r >= '0' && r <= '9' {
			parts = append(parts, string(r))
		}
	}
	return strings.Join(parts, ", ")
}
