// Package history expands players' match lists into the per-participant statistics
// those players recorded.
package history

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"teemo/internal/features"
	"teemo/internal/riot"
)

const (
	// DefaultSlotLimit scans every participant slot of a match
	DefaultSlotLimit = 10

	// LegacySlotLimit stops before the tenth slot, as the first generation of the
	// pipeline did. Models trained on that data never saw slot 9.
	LegacySlotLimit = 9

	// Bloom filter sizing for match de-duplication
	dedupeEstimate = 100000
	dedupeFPRate   = 0.001
)

// MatchSource is the part of the Riot client the expander depends on
type MatchSource interface {
	FetchMatchLists(ctx context.Context, names []string) ([]riot.Row[riot.MatchList], error)
	GetMatch(ctx context.Context, gameID int64) (*riot.Match, error)
}

// Options tunes a scan
type Options struct {
	// SlotLimit bounds the slots examined per match. Zero means DefaultSlotLimit.
	SlotLimit int

	// StopOnMalformed ends a match's scan at its first malformed slot instead of
	// recording it and moving on.
	StopOnMalformed bool

	// Dedupe fetches a match only once when it appears in several match lists
	Dedupe bool
}

// Observation is one matching participant's statistics in one match
type Observation struct {
	GameID int64
	Slot   int
	Name   string
	Stats  features.Stats
}

// MatchScan summarizes the scan of a single match
type MatchScan struct {
	GameID    int64
	Scanned   int
	Matched   int
	Malformed []*StructuralError
	Truncated bool
}

// Report is the full result of an expansion
type Report struct {
	Observations []Observation
	Matches      []MatchScan
	Duplicates   int
}

// Stats returns the observations' statistics in match-then-slot order
func (r *Report) Stats() []features.Stats {
	out := make([]features.Stats, 0, len(r.Observations))
	for _, o := range r.Observations {
		out = append(out, o.Stats)
	}
	return out
}

// Malformed returns every structural error recorded during the scan
func (r *Report) Malformed() []*StructuralError {
	var out []*StructuralError
	for _, m := range r.Matches {
		out = append(out, m.Malformed...)
	}
	return out
}

// Expander turns player names into their match statistics
type Expander struct {
	source MatchSource
	opts   Options
	logger *zap.SugaredLogger
}

// NewExpander creates an expander reading from source
func NewExpander(source MatchSource, logger *zap.Logger, opts Options) *Expander {
	if opts.SlotLimit <= 0 {
		opts.SlotLimit = DefaultSlotLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{
		source: source,
		opts:   opts,
		logger: logger.Sugar(),
	}
}

// Expand returns one statistics record per (match, participant) pair whose display
// name is among names, in match-then-slot order.
func (e *Expander) Expand(ctx context.Context, names []string) ([]features.Stats, error) {
	report, err := e.ExpandReport(ctx, names)
	if err != nil {
		return nil, err
	}
	return report.Stats(), nil
}

// ExpandReport is Expand with per-match diagnostics. Identity, match list and
// match fetch failures abort the whole expansion.
func (e *Expander) ExpandReport(ctx context.Context, names []string) (*Report, error) {
	lists, err := e.source.FetchMatchLists(ctx, names)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	report := &Report{}
	gameIDs := e.flatten(lists, report)
	e.logger.Infow("expanding match history", "players", len(lists), "matches", len(gameIDs), "duplicates", report.Duplicates)

	for _, gameID := range gameIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		match, err := e.source.GetMatch(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("fetch match %d: %w", gameID, err)
		}

		scan := e.scan(gameID, match, wanted, report)
		if len(scan.Malformed) > 0 {
			e.logger.Warnw("malformed match record", "gameId", gameID, "slots", len(scan.Malformed), "truncated", scan.Truncated)
		}
		report.Matches = append(report.Matches, scan)
	}
	return report, nil
}

// flatten lists game IDs in name-then-list order, skipping repeats when Dedupe is set
func (e *Expander) flatten(lists []riot.Row[riot.MatchList], report *Report) []int64 {
	var visited *bloom.BloomFilter
	if e.opts.Dedupe {
		visited = bloom.NewWithEstimates(dedupeEstimate, dedupeFPRate)
	}

	var ids []int64
	for _, row := range lists {
		for _, ref := range row.Record.Matches {
			if visited != nil && visited.TestAndAdd([]byte(strconv.FormatInt(ref.GameID, 10))) {
				report.Duplicates++
				continue
			}
			ids = append(ids, ref.GameID)
		}
	}
	return ids
}

// scan walks a match's slots and appends the stats of every wanted participant
func (e *Expander) scan(gameID int64, match *riot.Match, wanted map[string]bool, report *Report) MatchScan {
	scan := MatchScan{GameID: gameID}

	limit := max(len(match.ParticipantIdentities), len(match.Participants))
	limit = min(limit, e.opts.SlotLimit)

	for slot := 0; slot < limit; slot++ {
		scan.Scanned++

		name, stats, matched, serr := lookupSlot(gameID, match, slot, wanted)
		if serr != nil {
			scan.Malformed = append(scan.Malformed, serr)
			if e.opts.StopOnMalformed {
				scan.Truncated = true
				break
			}
			continue
		}
		if !matched {
			continue
		}

		scan.Matched++
		report.Observations = append(report.Observations, Observation{
			GameID: gameID,
			Slot:   slot,
			Name:   name,
			Stats:  stats,
		})
	}
	return scan
}

// lookupSlot reads the identity at slot and, when it belongs to a wanted player, the
// statistics positionally paired with it.
func lookupSlot(gameID int64, match *riot.Match, slot int, wanted map[string]bool) (string, features.Stats, bool, *StructuralError) {
	malformed := func(field string) (string, features.Stats, bool, *StructuralError) {
		return "", nil, false, &StructuralError{GameID: gameID, Slot: slot, Field: field}
	}

	if slot >= len(match.ParticipantIdentities) || match.ParticipantIdentities[slot] == nil {
		return malformed("participantIdentities")
	}
	player := match.ParticipantIdentities[slot].Player
	if player == nil {
		return malformed("participantIdentities.player")
	}
	// A blank name never matches a resolved player
	if !wanted[player.SummonerName] {
		return player.SummonerName, nil, false, nil
	}

	if slot >= len(match.Participants) || match.Participants[slot] == nil {
		return malformed("participants")
	}
	stats := match.Participants[slot].Stats
	if stats == nil {
		return malformed("participants.stats")
	}
	return player.SummonerName, features.Stats(maps.Clone(stats)), true, nil
}
