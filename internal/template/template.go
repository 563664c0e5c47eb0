// Package template resolves ${...} tokens inside logic text, conditions, and
// store keys. Two token families are supported: date-arithmetic tokens
// anchored at the run's job date (a format code plus an optional signed
// offset, e.g. ${yyyyMMdd-7d}) and plain ${name} placeholder substitution.
package template

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vk/rulegridgo/internal/ctxlog"
)

// datePattern pairs a format code with its Go layout and the offset units the
// code accepts.
type datePattern struct {
	code   string
	layout string
	units  string
}

// datePatterns are tried longest-code-first so compound codes are not
// shadowed by their prefixes.
var datePatterns = []datePattern{
	{"yyyy-MM-dd HH:mm:ss", "2006-01-02 15:04:05", "yMwdHms"},
	{"yyyyMMddHHmmss", "20060102150405", "yMwdHms"},
	{"yyyy-MM-dd", "2006-01-02", "yMwd"},
	{"yyyyMMdd", "20060102", "yMwd"},
	{"yyyy", "2006", "y"},
	{"MM", "01", "M"},
	{"dd", "02", "d"},
	{"HH", "15", "H"},
	{"mm", "04", "m"},
	{"ss", "05", "s"},
}

var (
	tokenRe      = regexp.MustCompile(`\$\{[^}]+\}`)
	offsetRe     = regexp.MustCompile(`^([+-])(\d+)([yMwdHms])$`)
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ParseJobDate accepts the two supported job date forms: a bare date or a
// date with a wall-clock time.
func ParseJobDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported job date %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)", s)
}

// Expand resolves every ${...} token in text. Date tokens are anchored at
// jobDate; ${name} tokens are substituted from placeholders. An unresolved
// placeholder is an error. A token that is neither a known date code nor an
// identifier passes through unchanged with a warning.
func Expand(ctx context.Context, text, jobDate string, placeholders map[string]any) (string, error) {
	if text == "" || !strings.Contains(text, "${") {
		return text, nil
	}
	logger := ctxlog.FromContext(ctx)

	var anchor time.Time
	haveAnchor := false
	if jobDate != "" {
		t, err := ParseJobDate(jobDate)
		if err != nil {
			logger.Warn("Job date is unparsable, date tokens will not be resolved.", "job_date", jobDate, "error", err)
		} else {
			anchor = t
			haveAnchor = true
		}
	}

	var expandErr error
	out := tokenRe.ReplaceAllStringFunc(text, func(token string) string {
		inner := token[2 : len(token)-1]

		if haveAnchor {
			if resolved, ok := resolveDateToken(inner, anchor); ok {
				return resolved
			}
		}

		if placeholders != nil {
			if v, ok := placeholders[inner]; ok {
				return fmt.Sprintf("%v", v)
			}
		}

		// A date-shaped token without a usable anchor is not a missing
		// placeholder; it survives unchanged like any unresolved date token.
		if isDateToken(inner) {
			logger.Warn("Date token has no job date anchor, passed through unchanged.", "token", token)
			return token
		}

		if identifierRe.MatchString(inner) {
			if expandErr == nil {
				expandErr = fmt.Errorf("unresolved placeholder ${%s}", inner)
			}
			return token
		}

		logger.Warn("Unresolved date token passed through unchanged.", "token", token)
		return token
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// isDateToken reports whether inner matches the date pattern table, either as
// a bare format code or as a code with a valid signed offset.
func isDateToken(inner string) bool {
	for _, p := range datePatterns {
		if inner == p.code {
			return true
		}
		if !strings.HasPrefix(inner, p.code) {
			continue
		}
		m := offsetRe.FindStringSubmatch(inner[len(p.code):])
		if m != nil && strings.ContainsRune(p.units, rune(m[3][0])) {
			return true
		}
	}
	return false
}

// resolveDateToken matches inner against the date pattern table and formats
// the offset-adjusted anchor time on success.
func resolveDateToken(inner string, anchor time.Time) (string, bool) {
	for _, p := range datePatterns {
		if inner == p.code {
			return anchor.Format(p.layout), true
		}
		if !strings.HasPrefix(inner, p.code) {
			continue
		}
		m := offsetRe.FindStringSubmatch(inner[len(p.code):])
		if m == nil || !strings.ContainsRune(p.units, rune(m[3][0])) {
			continue
		}
		amount, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if m[1] == "-" {
			amount = -amount
		}
		return applyOffset(anchor, amount, m[3]).Format(p.layout), true
	}
	return "", false
}

// applyOffset shifts t by amount units. Month arithmetic clamps the day to
// the length of the target month instead of normalizing into the next one.
func applyOffset(t time.Time, amount int, unit string) time.Time {
	switch unit {
	case "y":
		return t.AddDate(amount, 0, 0)
	case "M":
		return addMonthsClamped(t, amount)
	case "w":
		return t.AddDate(0, 0, amount*7)
	case "d":
		return t.AddDate(0, 0, amount)
	case "H":
		return t.Add(time.Duration(amount) * time.Hour)
	case "m":
		return t.Add(time.Duration(amount) * time.Minute)
	case "s":
		return t.Add(time.Duration(amount) * time.Second)
	}
	return t
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + months
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	day := t.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
