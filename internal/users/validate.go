package users

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

const (
	maxEmailLength       = 254
	maxDisplayNameLength = 64
	minHeightCM          = 50
	maxHeightCM          = 260
	maxTargetGlucose     = 40
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", v1.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return invalid("username must be 3-32 characters of letters, digits, '_', '.' or '-'")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || len(email) > maxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return "", invalid("email address is invalid")
	}
	return email, nil
}

func validateDisplayName(name string) error {
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		return invalid("display_name must be at most %d characters", maxDisplayNameLength)
	}
	return nil
}

// validateProfile checks the numeric profile fields of u. A target bound
// left at 0 falls back to the configured default, and the effective range
// must not be empty.
func validateProfile(u *User, defaults GlucoseRange) error {
	if !u.DiabetesType.Valid() {
		return invalid("unknown diabetes_type %q", u.DiabetesType)
	}
	if u.HeightCM != 0 && (u.HeightCM < minHeightCM || u.HeightCM > maxHeightCM) {
		return invalid("height_cm must be 0 or between %d and %d", minHeightCM, maxHeightCM)
	}
	for _, v := range []float64{u.TargetGlucoseMin, u.TargetGlucoseMax} {
		if v < 0 || v > maxTargetGlucose {
			return invalid("target glucose must be between 0 and %d mmol/L", maxTargetGlucose)
		}
	}
	if u.TargetGlucoseMin == 0 && u.TargetGlucoseMax == 0 {
		return nil
	}
	low, high := defaults.Low, defaults.High
	if u.TargetGlucoseMin > 0 {
		low = u.TargetGlucoseMin
	}
	if u.TargetGlucoseMax > 0 {
		high = u.TargetGlucoseMax
	}
	if low >= high {
		return invalid("target glucose range %.1f-%.1f mmol/L is empty: min must be below max", low, high)
	}
	return nil
}
