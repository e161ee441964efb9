package utils

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var mdEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "~", "\\~", "|", "\\|")

func EscapeMd(s string) string {
	return mdEscaper.Replace(s)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func PrettyTime(d time.Duration) string {
	sec := int(d.Round(time.Second) / time.Second)
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var reDur = regexp.MustCompile(`(?i)^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?$`)

// maxDurationPart bounds each of d, h and m so the sum cannot overflow.
const maxDurationPart = 1 << 20

// ParseMinutes accepts a bare minute count or a compact "1d2h30m" form.
func ParseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	m := reDur.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	days, ok1 := durationPart(m[1])
	hours, ok2 := durationPart(m[2])
	mins, ok3 := durationPart(m[3])
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return days*24*60 + hours*60 + mins, true
}

func durationPart(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v > maxDurationPart {
		return 0, false
	}
	return v, true
}

var reMention = regexp.MustCompile(`^<@!?(\d{15,21})>$`)
var reSnowflake = regexp.MustCompile(`^\d{15,21}$`)

// ParseUserID extracts a user snowflake from a mention or a raw ID.
func ParseUserID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := reMention.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if reSnowflake.MatchString(s) {
		return s, true
	}
	return "", false
}

func ShuffleSlice[T any](a []T) {
	rand.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
}
