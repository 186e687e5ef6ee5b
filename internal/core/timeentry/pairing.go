package timeentry

import (
	"sort"

	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/shopspring/decimal"
)

// Shift は入室と退室の組です。
type Shift struct {
	Entrance Entry
	Exit     Entry
}

// Hours は勤務時間を小数第 2 位で丸めて返します。
func (s Shift) Hours() decimal.Decimal {
	return period.ElapsedHours(s.Entrance.Timestamp, s.Exit.Timestamp)
}

type pairingState int

const (
	stateIdle pairingState = iota
	stateAwaitingExit
)

// Pairing は打刻列を順に畳み込んだ結果です。
type Pairing struct {
	Shifts []Shift
	// Open は退室待ちの入室です。nil なら勤務中ではありません。
	Open *Entry
}

// Pair は打刻を時刻順に走査し、入室を直後の退室と組にします。
// 後続の入室は退室待ちの入室を置き換え、入室のない退室は無視します。
func Pair(entries []Entry) Pairing {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		result   Pairing
		entrance Entry
	)
	state := stateIdle
	for _, e := range ordered {
		switch {
		case e.Kind == KindEntrance:
			state, entrance = stateAwaitingExit, e
		case e.Kind == KindExit && state == stateAwaitingExit:
			result.Shifts = append(result.Shifts, Shift{Entrance: entrance, Exit: e})
			state = stateIdle
		}
	}

	if state == stateAwaitingExit {
		open := entrance
		result.Open = &open
	}
	return result
}

// TotalHours は組ごとに丸めた勤務時間の合計です。
func (p Pairing) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Shifts {
		total = total.Add(s.Hours())
	}
	return total
}
