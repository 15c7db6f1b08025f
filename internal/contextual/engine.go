package contextual

import (
	"log/slog"

	"autoqueue/internal/catalog"
	"autoqueue/internal/logging"
)

// Engine applies the predicate set for one snapshot to candidate
// scores. Lower scores are better; rewards divide, penalties multiply.
type Engine struct {
	snapshot   *Snapshot
	predicates []Predicate
	logger     *slog.Logger
}

// NewEngine builds the predicate set for a snapshot.
func NewEngine(snap *Snapshot, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		snapshot:   snap,
		predicates: buildPredicates(snap),
		logger:     logging.NewComponentLogger(logger, "contextual"),
	}
}

// AdjustScore runs every predicate against the song, in declaration
// order, and returns the adjusted score along with the names of the
// predicates that fired. A song matching a predicate whose moment is
// now gets rewarded; a song matching an exclusive predicate out of its
// moment gets penalized.
func (e *Engine) AdjustScore(song *catalog.Song, score float64) (float64, []string) {
	var reasons []string
	for _, predicate := range e.predicates {
		switch {
		case predicate.AppliesToSong(song, false) && predicate.AppliesInContext(e.snapshot):
			score = predicate.Reward(score, song)
			reasons = append(reasons, predicate.Name())
		case predicate.AppliesToSong(song, true) && !predicate.AppliesInContext(e.snapshot):
			adjusted := predicate.Penalize(score)
			if adjusted != score {
				score = adjusted
				reasons = append(reasons, "!"+predicate.Name())
			}
		}
	}
	if len(reasons) > 0 {
		e.logger.Debug("adjusted score",
			logging.String(logging.FieldTitle, song.Title),
			logging.Float64("score", score),
			logging.Any("reasons", reasons))
	}
	return score, reasons
}
