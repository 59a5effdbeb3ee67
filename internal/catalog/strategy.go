package catalog

import (
	"fmt"
	"sort"
	"time"
)

// Strategy decides which backups a catalog keeps.
type Strategy interface {
	// Plan partitions entries (sorted oldest first) into retainable
	// and purgeable relative to now.
	Plan(entries []Entry, now time.Time) Plan

	fmt.Stringer
}

// Plan is the outcome of applying a strategy: every entry annotated
// with its status, plus the two partitions. Retain and Purge preserve
// the oldest-first ordering.
type Plan struct {
	Entries []Entry
	Retain  []Entry
	Purge   []Entry
}

func makePlan(entries []Entry, retain func(i int) bool) Plan {
	p := Plan{Entries: make([]Entry, len(entries))}
	for i, e := range entries {
		if retain(i) {
			e.Status = Retainable
			p.Retain = append(p.Retain, e)
		} else {
			e.Status = Purgeable
			p.Purge = append(p.Purge, e)
		}
		p.Entries[i] = e
	}
	return p
}

// KeepMostRecent retains the K most recent backups.
//
// K = 0 would purge everything, so the most recent backup is always
// implicitly retained: compaction never destroys the only backup.
type KeepMostRecent struct {
	K int
}

func (s KeepMostRecent) Plan(entries []Entry, now time.Time) Plan {
	keep := s.K
	if keep < 1 {
		keep = 1
	}
	cut := len(entries) - keep
	if cut < 0 {
		cut = 0
	}
	return makePlan(entries, func(i int) bool { return i >= cut })
}

func (s KeepMostRecent) String() string {
	return fmt.Sprintf("KeepMostRecent: %d", s.K)
}

// Classic retains backups in four time tiers relative to now:
//
//   - the latest backup per hour of the past 24 hours, excluding the
//     most recent hour (at most 23),
//   - the latest backup per day of the past 7 days, excluding the past
//     24 hours (at most 6),
//   - the latest backup per week of the past 4 weeks, excluding the
//     past 7 days (at most 3),
//   - the latest backup per month of the past year, excluding the past
//     4 weeks (at most 11).
//
// Backups inside the most recent hour are always retained regardless
// of bucket occupancy, so a backup made moments before compaction
// cannot be purged. Backups older than a year are purged.
type Classic struct{}

func (Classic) Plan(entries []Entry, now time.Time) Plan {
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.AddDate(0, 0, -1)
	weekAgo := now.AddDate(0, 0, -7)
	fourWeeksAgo := now.AddDate(0, 0, -28)
	yearAgo := now.AddDate(0, 0, -365)

	type tier struct {
		cap     int
		buckets map[string]int
	}
	hourly := tier{23, map[string]int{}}
	daily := tier{6, map[string]int{}}
	weekly := tier{3, map[string]int{}}
	monthly := tier{11, map[string]int{}}

	// Entries are sorted oldest first, so the last entry seen in a
	// bucket is that bucket's latest.
	grace := make(map[int]bool)
	for i, e := range entries {
		t := e.CreatedAt
		switch {
		case t.After(hourAgo):
			grace[i] = true
		case t.After(dayAgo):
			hourly.buckets["h"+t.UTC().Truncate(time.Hour).Format("2006010215")] = i
		case t.After(weekAgo):
			daily.buckets["d"+t.UTC().Format("20060102")] = i
		case t.After(fourWeeksAgo):
			y, w := t.UTC().ISOWeek()
			weekly.buckets[fmt.Sprintf("w%04d-%02d", y, w)] = i
		case t.After(yearAgo):
			monthly.buckets["m"+t.UTC().Format("200601")] = i
		}
	}

	retained := make(map[int]bool, len(grace))
	for i := range grace {
		retained[i] = true
	}
	// A tier's time range can straddle one more calendar bucket than
	// its cap (a 24-hour range touches up to 24 distinct clock hours),
	// so each tier keeps only its cap newest buckets.
	for _, tr := range []tier{hourly, daily, weekly, monthly} {
		idxs := make([]int, 0, len(tr.buckets))
		for _, i := range tr.buckets {
			idxs = append(idxs, i)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
		if len(idxs) > tr.cap {
			idxs = idxs[:tr.cap]
		}
		for _, i := range idxs {
			retained[i] = true
		}
	}
	return makePlan(entries, func(i int) bool { return retained[i] })
}

func (Classic) String() string {
	return "Classic"
}
