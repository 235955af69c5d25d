/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package period turns a month ("2026-01") or ISO week ("2026-W02") selector into
// the closed date interval an import replaces.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Kind distinguishes month and week selectors.
type Kind string

const (
	Month Kind = "month"
	Week  Kind = "week"
)

// Period is the resolved form of a selector. All dates are midnight UTC.
type Period struct {
	Kind  Kind
	Label string
	Start time.Time
	End   time.Time
	// SaleDate is stamped on every record the import creates; it is always End.
	SaleDate  time.Time
	ImportRef string
}

var (
	monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	weekPattern  = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
)

// Parse resolves a period selector.
func Parse(selector string) (Period, error) {
	if m := monthPattern.FindStringSubmatch(selector); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return ForMonth(year, time.Month(month))
	}
	if m := weekPattern.FindStringSubmatch(selector); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		return ForWeek(year, week)
	}
	if selector == "" {
		return Period{}, fmt.Errorf("period is required")
	}
	return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM or YYYY-Www", selector)
}

// ForMonth returns the calendar month as a period ending on its last day.
func ForMonth(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the next month is the last day of this one
	end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	label := fmt.Sprintf("%04d-%02d", year, int(month))

	return Period{
		Kind:      Month,
		Label:     label,
		Start:     start,
		End:       end,
		SaleDate:  end,
		ImportRef: "import_" + label,
	}, nil
}

// ForWeek returns ISO week `week` of `year`, Monday through Sunday.
func ForWeek(year, week int) (Period, error) {
	if week < 1 || week > 53 {
		return Period{}, fmt.Errorf("invalid week %d", week)
	}

	start := isoWeekOneMonday(year).AddDate(0, 0, (week-1)*7)
	if y, w := start.ISOWeek(); y != year || w != week {
		return Period{}, fmt.Errorf("year %d has no week %d", year, week)
	}
	end := start.AddDate(0, 0, 6)
	label := fmt.Sprintf("%04d-W%02d", year, week)

	return Period{
		Kind:      Week,
		Label:     label,
		Start:     start,
		End:       end,
		SaleDate:  end,
		ImportRef: "import_" + label,
	}, nil
}

// isoWeekOneMonday returns the Monday of the week containing January 4th.
func isoWeekOneMonday(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return jan4.AddDate(0, 0, 1-weekday)
}

// Contains reports whether day falls inside the closed interval.
func (p Period) Contains(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Description is the text stamped on business-customer sale records.
func (p Period) Description() string {
	return "Import " + p.Label
}
