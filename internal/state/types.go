package state

import "errors"

// SnapshotVersion is written into every persisted snapshot.
const SnapshotVersion = 1

// DefaultChips is the craps balance a brand-new identity starts with.
const DefaultChips = 100

// ErrNotFound is returned by a Backend when no snapshot has been written yet.
var ErrNotFound = errors.New("state snapshot not found")

// PrecisionRecord tracks how close an identity gets to the 4:20 target times.
type PrecisionRecord struct {
	LastHit    int64 `json:"last_hit"`    // unix seconds of the last counted hit
	Perfect    int   `json:"perfect"`     // hits that closed a ~12h cycle
	Total      int   `json:"total"`       // counted hits
	BestOffset int64 `json:"best_offset"` // smallest |now-target| in seconds
	Streak     int   `json:"streak"`
}

// CrapsState is the per-identity dice game record. Point 0 means no point is set.
type CrapsState struct {
	Point  int `json:"point,omitempty"`
	Chips  int `json:"chips"`
	Bet    int `json:"bet"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Snapshot is the whole persisted aggregate. Every map is keyed by the same identity (nick);
// a missing key means "never recorded", never zero.
type Snapshot struct {
	Version       int                         `json:"version"`
	Timestamps    map[string]int64            `json:"timestamps"`
	TBEnabled     map[string]bool             `json:"tb_enabled"`
	Counters      map[string]int              `json:"counters"`
	LongestGap    map[string]int64            `json:"longest_gap"`
	Timezones     map[string]string           `json:"timezones"`
	Precision     map[string]*PrecisionRecord `json:"precision"`
	DigitProgress map[string]int              `json:"digit_progress"`
	RoundsWon     map[string]int              `json:"rounds_won"`
	History       map[string][]int64          `json:"history"`
	Craps         map[string]*CrapsState      `json:"craps"`
}

// NewSnapshot returns an empty aggregate with every map allocated.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.ensure()
	return s
}

func (s *Snapshot) ensure() {
	s.Version = SnapshotVersion
	if s.Timestamps == nil {
		s.Timestamps = make(map[string]int64)
	}
	if s.TBEnabled == nil {
		s.TBEnabled = make(map[string]bool)
	}
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	if s.LongestGap == nil {
		s.LongestGap = make(map[string]int64)
	}
	if s.Timezones == nil {
		s.Timezones = make(map[string]string)
	}
	if s.Precision == nil {
		s.Precision = make(map[string]*PrecisionRecord)
	}
	if s.DigitProgress == nil {
		s.DigitProgress = make(map[string]int)
	}
	if s.RoundsWon == nil {
		s.RoundsWon = make(map[string]int)
	}
	if s.History == nil {
		s.History = make(map[string][]int64)
	}
	if s.Craps == nil {
		s.Craps = make(map[string]*CrapsState)
	}
}

// RecordAction applies the tracker mutation for nick at unix time now: timestamp, counter,
// longest gap (only ever grows) and history. It returns the gap since the previous action
// and whether there was one.
func (s *Snapshot) RecordAction(nick string, now int64) (gap int64, hadPrev bool) {
	prev, hadPrev := s.Timestamps[nick]
	if hadPrev {
		gap = now - prev
		if gap < 0 {
			gap = 0
		}
		if cur, ok := s.LongestGap[nick]; !ok || gap > cur {
			s.LongestGap[nick] = gap
		}
	}
	s.Timestamps[nick] = now
	s.Counters[nick]++
	s.History[nick] = append(s.History[nick], now)
	return gap, hadPrev
}

// CrapsFor returns the game record for nick, creating the default one on first use.
func (s *Snapshot) CrapsFor(nick string) *CrapsState {
	g, ok := s.Craps[nick]
	if !ok || g == nil {
		g = &CrapsState{Chips: DefaultChips}
		s.Craps[nick] = g
	}
	return g
}

// PrecisionFor returns the precision record for nick, creating an empty one on first use.
func (s *Snapshot) PrecisionFor(nick string) *PrecisionRecord {
	p, ok := s.Precision[nick]
	if !ok || p == nil {
		p = &PrecisionRecord{}
		s.Precision[nick] = p
	}
	return p
}
