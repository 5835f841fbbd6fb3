package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Validation error codes.
const (
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeInThePast       = "IN_THE_PAST"
	CodeBeforeDeparture = "BEFORE_DEPARTURE"
	CodeInvalidAdults   = "INVALID_ADULTS"
	CodePartyTooLarge   = "PARTY_TOO_LARGE"
	CodeInvalidEnum     = "INVALID_ENUM"
	CodeMissingName     = "MISSING_NAME"
	CodeNoIataFound     = "NO_IATA_FOUND"
)

// MaxAdults is the largest party size bookable over the phone; bigger groups
// are referred to a human agent.
const MaxAdults = 8

// Error carries a machine-readable code, the field it concerns, and a
// caller-facing message.
type Error struct {
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a validation error.
func NewError(code, field, message string) *Error {
	return &Error{Code: code, Field: field, Message: message}
}

// CodeOf returns the validation code of err, or "" if err is not a *Error.
func CodeOf(err error) string {
	if ve, ok := err.(*Error); ok {
		return ve.Code
	}
	return ""
}

const dateLayout = "2006-01-02"

var (
	parenIATARe = regexp.MustCompile(`\(([A-Z]{3})\)`)
	bareIATARe  = regexp.MustCompile(`^[A-Z]{3}$`)
	emailRe     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	cabinClasses    = []string{"ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST"}
	genders         = []string{"MALE", "FEMALE"}
	seatPreferences = []string{"WINDOW", "AISLE"}
)

// Date checks the literal YYYY-MM-DD shape and returns the parsed day.
func Date(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, NewError(CodeInvalidFormat, field,
			fmt.Sprintf("I need the date as year, month, day, like 2026-10-01. I heard %q.", value))
	}
	return t, nil
}

// FutureDate checks shape and rejects dates strictly before today.
func FutureDate(field, value string, today time.Time) (time.Time, error) {
	t, err := Date(field, value)
	if err != nil {
		return time.Time{}, err
	}
	todayOnly := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if t.Before(todayOnly) {
		return time.Time{}, NewError(CodeInThePast, field,
			fmt.Sprintf("%s is in the past. What future date works for you?", value))
	}
	return t, nil
}

// ReturnDate checks shape and requires the return to be strictly after the
// departure.
func ReturnDate(value, departure string, today time.Time) (time.Time, error) {
	t, err := FutureDate("return_date", value, today)
	if err != nil {
		return time.Time{}, err
	}
	dep, err := Date("departure_date", departure)
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(dep) {
		return time.Time{}, NewError(CodeBeforeDeparture, "return_date",
			fmt.Sprintf("The return date %s has to be after the departure date %s.", value, departure))
	}
	return t, nil
}

// AdultsStrict parses a passenger count for the per-field save path:
// non-numeric or non-positive input is rejected outright.
func AdultsStrict(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 0, NewError(CodeInvalidAdults, "adults",
			fmt.Sprintf("I need the number of adult passengers as a number, like 1 or 2. I heard %q.", value))
	}
	if n > MaxAdults {
		return 0, partyTooLarge(n)
	}
	return n, nil
}

// AdultsLenient parses a passenger count for the batch finalize path:
// unparseable input defaults to 1 instead of blocking the whole group.
// Parties over the limit are still rejected.
func AdultsLenient(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 1, nil
	}
	if n > MaxAdults {
		return 0, partyTooLarge(n)
	}
	return n, nil
}

func partyTooLarge(n int) *Error {
	return NewError(CodePartyTooLarge, "adults",
		fmt.Sprintf("I can book up to %d passengers in one reservation, and %d is more than that. For group travel, please contact one of our human agents who will be happy to arrange it.", MaxAdults, n))
}

// Cabin normalizes a cabin class against the closed set
// ECONOMY | PREMIUM_ECONOMY | BUSINESS | FIRST (case-insensitive, spaces and
// hyphens tolerated).
func Cabin(value string) (string, error) {
	return member("cabin_class", value, cabinClasses)
}

// Gender normalizes against MALE | FEMALE.
func Gender(value string) (string, error) {
	return member("gender", value, genders)
}

// Seat normalizes a seat preference against WINDOW | AISLE.
func Seat(value string) (string, error) {
	return member("seat_preference", value, seatPreferences)
}

func member(field, value string, set []string) (string, error) {
	norm := strings.ToUpper(strings.TrimSpace(value))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, m := range set {
		if norm == m {
			return m, nil
		}
	}
	return "", NewError(CodeInvalidEnum, field,
		fmt.Sprintf("%q isn't an option for %s. Choose one of: %s.", value, field, strings.Join(set, ", ")))
}

// Email checks the rough shape of an address and lowercases it. Spoken
// emails arrive transcribed, so this only catches structural garbage; the
// confirmation read-back is the real safeguard.
func Email(value string) (string, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	if !emailRe.MatchString(norm) {
		return "", NewError(CodeInvalidFormat, "email",
			fmt.Sprintf("%q doesn't look like an email address. Could you spell it out for me?", value))
	}
	return norm, nil
}

// Name splits a spoken full name into first and last, requiring both.
func Name(full string) (first, last string, err error) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) < 2 {
		return "", "", NewError(CodeMissingName, "full_name",
			"I need both a first and last name. Could you give me your full name?")
	}
	return parts[0], strings.Join(parts[1:], " "), nil
}

// ExtractIATA pulls an airport code out of free text: a parenthesized
// 3-letter uppercase token wins, else the whole trimmed text must itself be
// a bare code. Anything else is not resolvable here and should go through
// the airport lookup instead.
func ExtractIATA(text string) (string, error) {
	if m := parenIATARe.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	trimmed := strings.TrimSpace(text)
	if bareIATARe.MatchString(trimmed) {
		return trimmed, nil
	}
	return "", NewError(CodeNoIataFound, "location",
		fmt.Sprintf("I couldn't find an airport code in %q.", text))
}
