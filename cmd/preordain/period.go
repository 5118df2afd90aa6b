package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/preordain/internal/stats"
)

const dateLayout = "2006-01-02"

// periodFlags narrow an analysis to games played in a time window.
type periodFlags struct {
	month string
	since string
	until string

	now func() time.Time
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.month, "month", "", "Only games from this month: YYYY-MM, or an offset such as 0 (this month) or -1 (last month)")
	cmd.Flags().StringVar(&f.since, "since", "", "Only games played on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "Only games played on or before this date (YYYY-MM-DD), used with --since")
	cmd.MarkFlagsMutuallyExclusive("month", "since")
	cmd.MarkFlagsMutuallyExclusive("month", "until")
}

// timeRange returns the selected window, or false when no flag was given.
func (f *periodFlags) timeRange() (stats.TimeRange, bool, error) {
	now := time.Now
	if f.now != nil {
		now = f.now
	}

	if f.month != "" {
		if offset, err := strconv.Atoi(f.month); err == nil {
			return stats.MonthRangeFrom(now().UTC(), offset), true, nil
		}
		ref, err := time.Parse("2006-01", f.month)
		if err != nil {
			return stats.TimeRange{}, false, fmt.Errorf("invalid --month %q: want YYYY-MM or an offset like -1", f.month)
		}
		return stats.MonthRangeFrom(ref, 0), true, nil
	}

	if f.since == "" {
		if f.until != "" {
			return stats.TimeRange{}, false, fmt.Errorf("--until requires --since")
		}
		return stats.TimeRange{}, false, nil
	}

	start, err := time.Parse(dateLayout, f.since)
	if err != nil {
		return stats.TimeRange{}, false, fmt.Errorf("invalid --since %q: want YYYY-MM-DD", f.since)
	}

	n := now().UTC()
	end := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if f.until != "" {
		last, err := time.Parse(dateLayout, f.until)
		if err != nil {
			return stats.TimeRange{}, false, fmt.Errorf("invalid --until %q: want YYYY-MM-DD", f.until)
		}
		end = last.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return stats.TimeRange{}, false, fmt.Errorf("--since %s is after the end of the period", f.since)
	}
	return stats.TimeRange{Start: start, End: end}, true, nil
}
