package quota

import "time"

// UsageRecord is the per-user, per-feature usage counter.
// A zero LastActionDate means the feature was never used.
type UsageRecord struct {
	DailyCount     int       `json:"dailyCount"`
	LastActionDate time.Time `json:"lastActionDate"`
}

// Decide applies one gated action to rec. The stored count only applies when
// LastActionDate falls on the same calendar day as now in loc; otherwise the
// count restarts from zero before the action is counted. A denied action
// returns rec unchanged.
func Decide(rec UsageRecord, now time.Time, loc *time.Location, ceiling int) (UsageRecord, bool) {
	count := CountToday(rec, now, loc)
	if count >= ceiling {
		return rec, false
	}
	return UsageRecord{DailyCount: count + 1, LastActionDate: now}, true
}

// CountToday returns the number of actions already counted on now's calendar day.
func CountToday(rec UsageRecord, now time.Time, loc *time.Location) int {
	if rec.LastActionDate.IsZero() || !sameDay(rec.LastActionDate, now, loc) {
		return 0
	}
	return rec.DailyCount
}

// NextReset is the start of the calendar day after now in loc.
func NextReset(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
