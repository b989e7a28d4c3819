package service

import (
	"strconv"
	"strings"
)

type field struct {
	name    string
	present bool
}

// requireFields returns "missing: a, b" for absent fields, in declaration order.
func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return newError(KindValidation, "missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidTime accepts zero-padded 24h HH:MM.
func ValidTime(t string) bool {
	if len(t) != 5 || t[2] != ':' {
		return false
	}
	hh, ok := parseDigits(t[:2])
	if !ok {
		return false
	}
	mm, ok := parseDigits(t[3:])
	if !ok {
		return false
	}
	return hh <= 23 && mm <= 59
}

// ValidDate accepts YYYY-MM-DD with month 1-12 and day 1-31.
// Month length and leap years are not checked, so 2025-02-31 passes.
func ValidDate(d string) bool {
	if len(d) != 10 || d[4] != '-' || d[7] != '-' {
		return false
	}
	if _, ok := parseDigits(d[:4]); !ok {
		return false
	}
	month, ok := parseDigits(d[5:7])
	if !ok {
		return false
	}
	day, ok := parseDigits(d[8:])
	if !ok {
		return false
	}
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func parseDigits(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// validateWindow runs the format and ordering checks shared by create, update
// and availability queries. Presence is checked by the caller.
func validateWindow(date, startTime, endTime string) error {
	if !ValidTime(startTime) || !ValidTime(endTime) {
		return newError(KindValidation, "invalid time format HH:MM")
	}
	if !ValidDate(date) {
		return newError(KindValidation, "invalid date format YYYY-MM-DD")
	}
	if endTime <= startTime {
		return newError(KindValidation, "end_time must be after start_time")
	}
	return nil
}
