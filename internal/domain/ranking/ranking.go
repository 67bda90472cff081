// Package ranking turns a player snapshot into a gold/silver/bronze podium.
//
// Players are ordered by points-per-game ratio (ppgr) descending, then by
// games played ascending, then by username ascending. Each tier takes the
// maximal run of players sharing the ppgr of the tier's first member.
// Ratios are exact rationals so equal fractions always share a tier.
package ranking

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/internal/domain/types"
)

// Tiers is the number of podium tiers: gold, silver, bronze.
const Tiers = 3

// Entry is the ranking view of one player.
type Entry struct {
	Username    string
	GamesPlayed int
	TotalScore  int

	ppgr *big.Rat
}

// PPGR returns a copy of the points-per-game ratio.
func (e Entry) PPGR() *big.Rat { return new(big.Rat).Set(e.ppgr) }

// Ratio approximates the ppgr as a float, for logs only.
func (e Entry) Ratio() float64 {
	f, _ := e.ppgr.Float64()
	return f
}

func newEntry(p model.Player) Entry {
	ppgr := new(big.Rat)
	if p.GamesPlayed > 0 {
		ppgr.SetFrac64(int64(p.TotalScore), int64(p.GamesPlayed))
	}
	return Entry{
		Username:    p.Username,
		GamesPlayed: p.GamesPlayed,
		TotalScore:  p.TotalScore,
		ppgr:        ppgr,
	}
}

// Compute validates a snapshot and derives one Entry per player, in input
// order. The first malformed record aborts the whole computation.
func Compute(players []model.Player) ([]Entry, error) {
	seen := make(map[string]int, len(players))
	entries := make([]Entry, 0, len(players))
	for i, p := range players {
		if err := validate(p); err != nil {
			return nil, &ValidationError{Index: i, Username: p.Username, Err: err}
		}
		if first, dup := seen[p.Username]; dup {
			return nil, &ValidationError{Index: i, Username: p.Username, Err: fmt.Errorf("%w, first seen at record %d", ErrDuplicateUsername, first)}
		}
		seen[p.Username] = i
		entries = append(entries, newEntry(p))
	}
	return entries, nil
}

func validate(p model.Player) error {
	switch {
	case p.Username == "":
		return ErrEmptyUsername
	case p.GamesPlayed < 0:
		return ErrNegativeGames
	}
	return nil
}

// Compare orders entries by rank: negative when a ranks before b.
func Compare(a, b Entry) int {
	if c := b.ppgr.Cmp(a.ppgr); c != 0 {
		return c
	}
	if c := cmp.Compare(a.GamesPlayed, b.GamesPlayed); c != 0 {
		return c
	}
	return strings.Compare(a.Username, b.Username)
}

// Rank sorts a copy of entries and partitions it into Tiers groups.
// Entries past the last tier are dropped; exhausted tiers are empty.
func Rank(entries []Entry) [Tiers][]Entry {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, Compare)

	var tiers [Tiers][]Entry
	start := 0
	for t := range tiers {
		end := start
		for end < len(sorted) && sorted[end].ppgr.Cmp(sorted[start].ppgr) == 0 {
			end++
		}
		tiers[t] = sorted[start:end:end]
		start = end
	}
	return tiers
}

// ComputePodium ranks a snapshot and returns the client-facing podium.
func ComputePodium(players []model.Player) (types.Podium, error) {
	entries, err := Compute(players)
	if err != nil {
		return types.Podium{}, err
	}
	tiers := Rank(entries)
	return types.Podium{
		Gold:   toView(tiers[0]),
		Silver: toView(tiers[1]),
		Bronze: toView(tiers[2]),
	}, nil
}

func toView(tier []Entry) []types.PodiumEntry {
	out := make([]types.PodiumEntry, len(tier))
	for i, e := range tier {
		out[i] = types.PodiumEntry{
			Username:    e.Username,
			GamesPlayed: e.GamesPlayed,
			TotalScore:  e.TotalScore,
		}
	}
	return out
}
