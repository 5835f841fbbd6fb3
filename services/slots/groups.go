package slots

import (
	"strconv"
	"strings"
	"time"

	"voyager/models"
	"voyager/services/validate"
)

// Question keys. These double as the accumulator map keys and as the field
// names surfaced in validation errors.
const (
	KeyFullName        = "full_name"
	KeyDateOfBirth     = "date_of_birth"
	KeyGender          = "gender"
	KeyEmail           = "email"
	KeySeatPreference  = "seat_preference"
	KeyCabinPreference = "cabin_preference"
	KeyHomeAirport     = "home_airport"
	KeyDepartureDate   = "departure_date"
	KeyReturnDate      = "return_date"
	KeyAdults          = "adults"
	KeyCabinClass      = "cabin_class"
)

// Question is one slot in an ordered group. Confirm marks answers that must
// be read back and confirmed before they stick (names and emails transcribe
// badly). Validate normalizes the raw answer; prior answers in the same
// group are available for cross-field rules. A nil Validate stores the
// answer as spoken.
type Question struct {
	Key      string
	Prompt   string
	Confirm  bool
	Validate func(now time.Time, answers map[string]string, raw string) (string, error)
}

var profileQuestions = []Question{
	{
		Key:     KeyFullName,
		Prompt:  "What's your full name?",
		Confirm: true,
		Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
			first, last, err := validate.Name(raw)
			if err != nil {
				return "", err
			}
			return first + " " + last, nil
		},
	},
	{
		Key:    KeyDateOfBirth,
		Prompt: "What's your date of birth? Year, month, then day works best.",
		Validate: func(now time.Time, _ map[string]string, raw string) (string, error) {
			t, err := validate.Date(KeyDateOfBirth, raw)
			if err != nil {
				return "", err
			}
			if t.After(now) {
				return "", validate.NewError(validate.CodeInvalidFormat, KeyDateOfBirth,
					"That birth date hasn't happened yet. Could you give it to me again?")
			}
			return strings.TrimSpace(raw), nil
		},
	},
	{
		Key:    KeyGender,
		Prompt: "What gender is listed on your travel documents, male or female?",
		Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
			return validate.Gender(raw)
		},
	},
	{
		Key:     KeyEmail,
		Prompt:  "What email address should I send confirmations to?",
		Confirm: true,
		Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
			return validate.Email(raw)
		},
	},
	{
		Key:    KeySeatPreference,
		Prompt: "Do you prefer a window or an aisle seat?",
		Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
			return validate.Seat(raw)
		},
	},
	{
		Key:    KeyCabinPreference,
		Prompt: "Which cabin do you usually fly, economy, premium economy, business, or first?",
		Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
			return validate.Cabin(raw)
		},
	},
	{
		Key:    KeyHomeAirport,
		Prompt: "And which airport do you usually fly from?",
	},
}

var oneWayQuestions = []Question{
	departureDateQuestion,
	adultsQuestion,
	cabinClassQuestion,
}

var roundTripQuestions = []Question{
	departureDateQuestion,
	{
		Key:    KeyReturnDate,
		Prompt: "What date are you coming back?",
		Validate: func(now time.Time, answers map[string]string, raw string) (string, error) {
			dep := answers[KeyDepartureDate]
			if dep == "" {
				if _, err := validate.FutureDate(KeyReturnDate, raw, now); err != nil {
					return "", err
				}
				return strings.TrimSpace(raw), nil
			}
			if _, err := validate.ReturnDate(raw, dep, now); err != nil {
				return "", err
			}
			return strings.TrimSpace(raw), nil
		},
	},
	adultsQuestion,
	cabinClassQuestion,
}

var departureDateQuestion = Question{
	Key:    KeyDepartureDate,
	Prompt: "What date would you like to depart?",
	Validate: func(now time.Time, _ map[string]string, raw string) (string, error) {
		if _, err := validate.FutureDate(KeyDepartureDate, raw, now); err != nil {
			return "", err
		}
		return strings.TrimSpace(raw), nil
	},
}

// The cursor path is the accumulated-group path, so it takes the lenient
// passenger-count parse; only oversized parties fail here.
var adultsQuestion = Question{
	Key:    KeyAdults,
	Prompt: "How many adults are traveling?",
	Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
		n, err := validate.AdultsLenient(raw)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	},
}

var cabinClassQuestion = Question{
	Key:    KeyCabinClass,
	Prompt: "Which cabin class, economy, premium economy, business, or first?",
	Validate: func(_ time.Time, _ map[string]string, raw string) (string, error) {
		return validate.Cabin(raw)
	},
}

// questionsFor returns the ordered question list for a group id, or nil.
func questionsFor(group string) []Question {
	switch group {
	case models.GroupProfile:
		return profileQuestions
	case models.GroupOneWay:
		return oneWayQuestions
	case models.GroupRoundTrip:
		return roundTripQuestions
	}
	return nil
}

// fieldLabel turns a question key into the words a caller would hear.
func fieldLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// firstUnanswered returns the index of the first question with no
// accumulated answer, or len(qs) when the group is complete.
func firstUnanswered(qs []Question, answers map[string]string) int {
	for i, q := range qs {
		if answers[q.Key] == "" {
			return i
		}
	}
	return len(qs)
}

// Complete reports whether every question in the group has an answer. Other
// services use it to decide how far along a call's data already is.
func Complete(state *models.CallState, group string) bool {
	return MissingField(state, group) == ""
}

// FirstPrompt returns the opening question prompt for a group, for services
// that restart a group and need to ask its first question again.
func FirstPrompt(group string) string {
	qs := questionsFor(group)
	if len(qs) == 0 {
		return ""
	}
	return qs[0].Prompt
}

// MissingField returns the spoken label of the first unanswered question in
// the group ("departure date"), or "" when the group is complete. A group
// that was never started reports its first question as missing.
func MissingField(state *models.CallState, group string) string {
	qs := questionsFor(group)
	if qs == nil {
		return ""
	}
	g := state.GroupState(group)
	if g == nil {
		return fieldLabel(qs[0].Key)
	}
	if i := firstUnanswered(qs, g.Answers); i < len(qs) {
		return fieldLabel(qs[i].Key)
	}
	return ""
}
