package cli

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// parseDate accepts YYYY-MM-DD.
func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func parseDates(values []string) ([]civil.Date, error) {
	dates := make([]civil.Date, 0, len(values))
	for _, v := range values {
		d, err := parseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// parseDays splits "M,W,F" into codes; validation is left to the domain.
func parseDays(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, strings.ToUpper(part))
		}
	}
	return codes
}

func joinDates(dates []civil.Date) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
