package dummies

import (
	"context"

	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/pool"
)

// Injector selects decoy meanings from the candidate pool to pad a round
// out to a minimum level of ambiguity.
type Injector struct {
	pool     *pool.Pool
	resolver pool.Resolver
}

func NewInjector(p *pool.Pool, resolver pool.Resolver) *Injector {
	return &Injector{
		pool:     p,
		resolver: resolver,
	}
}

// Inject returns the decoy cards for a round with the given theme and
// participant count. Live rounds get a deliberately confusable first decoy:
// the pool entry whose reading is closest to the theme's reading without
// matching it. Decoy meanings go through the same resolution as the theme;
// a failed lookup falls back to the corpus's raw meaning text.
func (in *Injector) Inject(ctx context.Context, theme gametypes.Theme, participants int, curated bool) []gametypes.MeaningCard {
	count := constants.DecoyTarget - participants
	if count < constants.MinDecoys {
		count = constants.MinDecoys
	}

	cards := make([]gametypes.MeaningCard, 0, count)
	for i := 0; i < count; i++ {
		var candidate gametypes.Candidate
		if i == 0 && !curated {
			nearest, ok := in.pool.NearestReading(theme.Reading, theme.Word)
			if ok {
				candidate = nearest
			} else {
				candidate = in.pool.Pick()
			}
		} else {
			candidate = in.pool.Pick()
		}

		cards = append(cards, gametypes.MeaningCard{
			Text:        in.resolveMeaning(ctx, candidate),
			Decoy:       candidate.Word,
			DecoySource: candidate.Source,
		})
	}
	return cards
}

func (in *Injector) resolveMeaning(ctx context.Context, c gametypes.Candidate) string {
	meaning, err := in.resolver.Resolve(ctx, c)
	if err == nil && meaning != "" {
		return meaning
	}
	if err != nil {
		log.Warn("Failed to resolve decoy meaning for %q, using raw text: %v", c.Word, err)
	}
	return pool.NormalizeMeaning(c.RawMeaning)
}
