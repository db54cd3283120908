package analysis

import (
	"context"
	"iter"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/TFMV/graphedit/models"
)

// Visit is one step of a traversal.
type Visit struct {
	Node    models.NodeID `json:"node"`
	Index   int           `json:"index"` // 1-based
	Total   int           `json:"total"`
	Percent int           `json:"percent"`
}

// Percent returns round(i/n*100) for the i-th of n steps.
func Percent(i, n int) int {
	if n <= 0 {
		return 100
	}
	return int(math.Round(float64(i) / float64(n) * 100))
}

// Traverse yields every node of g exactly once, in g's iteration order, spacing the
// visits by pace. The sequence stops early once ctx is cancelled; a visit is never
// yielded after cancellation. A non-positive pace disables the spacing.
func Traverse(ctx context.Context, g models.View, pace time.Duration) iter.Seq[Visit] {
	return func(yield func(Visit) bool) {
		nodes := g.Nodes()
		total := len(nodes)

		var limiter *rate.Limiter
		if pace > 0 {
			limiter = rate.NewLimiter(rate.Every(pace), 1)
		}

		for i, id := range nodes {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
			v := Visit{Node: id, Index: i + 1, Total: total, Percent: Percent(i+1, total)}
			if !yield(v) {
				return
			}
		}
	}
}
