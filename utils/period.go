package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	fyPattern        = regexp.MustCompile(`(?i)(?:F\.?Y\.?\s*)?(20\d{2})\s*[-–]\s*(\d{2,4})`)
	monthYearPattern = regexp.MustCompile(`(?i)([A-Za-z]+)[\s,\-]+(20\d{2})`)
	numericPattern   = regexp.MustCompile(`^(\d{1,2})[/-]?(20\d{2})$`)
)

// ParsePeriod parses a filing-period string: "05-2023", "052023",
// "May 2023" or a financial year "2022-23" / "FY 2022-2023".
func ParsePeriod(s string) (dto.Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return dto.Period{}, fmt.Errorf("empty period")
	}

	if m := numericPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return dto.Period{Month: month, Year: year}, nil
		}
		return dto.Period{}, fmt.Errorf("invalid month in period %q", s)
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			return dto.Period{Month: month, Year: year}, nil
		}
	}

	if p, ok := parseFinancialYear(s); ok {
		return p, nil
	}

	return dto.Period{}, fmt.Errorf("unrecognized period %q", s)
}

func parseFinancialYear(s string) (dto.Period, bool) {
	m := fyPattern.FindStringSubmatch(s)
	if m == nil {
		return dto.Period{}, false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end < 100 {
		end += (start / 100) * 100
	}
	if end != start+1 {
		return dto.Period{}, false
	}
	return dto.Period{FYStart: start}, true
}

// FindFinancialYear extracts an explicitly labelled financial year from
// document text. The label must be present: a financial year is never
// inferred from a month-year alone.
func FindFinancialYear(text string) (dto.Period, bool) {
	labelled := regexp.MustCompile(`(?i)financial\s+year[^0-9]{0,10}(20\d{2}\s*[-–]\s*\d{2,4})`)
	m := labelled.FindStringSubmatch(text)
	if m == nil {
		return dto.Period{}, false
	}
	return parseFinancialYear(m[1])
}

// FindMonthYear extracts a labelled return period ("Period: May 2023",
// "Month 05-2023") from document text.
func FindMonthYear(text string) (dto.Period, bool) {
	labelled := regexp.MustCompile(`(?i)(?:period|month|tax\s+period)\s*[:\-]?\s*([A-Za-z]+[\s,\-]+20\d{2}|\d{2}[/-]?20\d{2})`)
	m := labelled.FindStringSubmatch(text)
	if m == nil {
		return dto.Period{}, false
	}
	p, err := ParsePeriod(m[1])
	if err != nil || p.IsFinancialYear() {
		return dto.Period{}, false
	}
	return p, true
}
