package commands

import (
	"time"

	"github.com/park285/chr0n-bot/internal/state"
)

const (
	precisionWindow = 30 // seconds either side of a target, inclusive
	sameOccurrence  = int64(time.Hour / time.Second)
	cycleMin        = int64(11 * time.Hour / time.Second)
	cycleMax        = int64(13 * time.Hour / time.Second)
)

// targetClock lists the daily target times as hour, minute.
var targetClock = [][2]int{{4, 20}, {16, 20}}

// PrecisionResult describes one status check against the target times.
type PrecisionResult struct {
	Counted bool // false when the hit repeats an occurrence already counted
	Offset  int64
	Rank    string
	Record  state.PrecisionRecord
}

// PrecisionOffset reports whether now lies within the window of a target time in loc and
// the absolute distance in seconds.
func PrecisionOffset(now time.Time, loc *time.Location) (int64, bool) {
	local := now.In(loc)
	for _, hm := range targetClock {
		target := time.Date(local.Year(), local.Month(), local.Day(), hm[0], hm[1], 0, 0, loc)
		off := now.Unix() - target.Unix()
		if off < 0 {
			off = -off
		}
		if off <= precisionWindow {
			return off, true
		}
	}
	return 0, false
}

// ApplyPrecision scores a hit at now onto rec. A hit within an hour of the last counted one
// is the same occurrence and changes nothing. A gap of 11h to 13h inclusive extends the
// streak and counts a perfect cycle; any other gap restarts the streak at 1.
func ApplyPrecision(rec *state.PrecisionRecord, now int64, offset int64) PrecisionResult {
	res := PrecisionResult{Offset: offset, Rank: PrecisionRank(offset)}
	if rec.Total > 0 && now-rec.LastHit < sameOccurrence {
		res.Record = *rec
		return res
	}

	gap := now - rec.LastHit
	if rec.Total > 0 && gap >= cycleMin && gap <= cycleMax {
		rec.Perfect++
		rec.Streak++
	} else {
		rec.Streak = 1
	}
	if rec.Total == 0 || offset < rec.BestOffset {
		rec.BestOffset = offset
	}
	rec.Total++
	rec.LastHit = now

	res.Counted = true
	res.Record = *rec
	return res
}

// PrecisionRank labels an offset in seconds.
func PrecisionRank(offset int64) string {
	switch {
	case offset == 0:
		return "PERFECT"
	case offset <= 5:
		return "Sniper"
	case offset <= 15:
		return "Sharp"
	default:
		return "Close enough"
	}
}
