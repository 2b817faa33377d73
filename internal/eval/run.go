// Package eval measures how well items land in the right store section,
// with the keyword classifier alone or followed by a model review pass.
package eval

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/eval/dataset"
	"github.com/listlens/listlens/internal/eval/metrics"
	"github.com/listlens/listlens/internal/models"
)

const DefaultBatchSize = 25

// Reviewer is the review capability under test.
type Reviewer interface {
	ReviewCategories(ctx context.Context, items []models.SnapshotItem) ([]models.ProposedCategory, error)
}

type Options struct {
	// Reviewer is optional; without it only the classifier is scored.
	Reviewer  Reviewer
	BatchSize int
}

// Run classifies every record and, with a reviewer, sends the predictions
// for review in batches the way a shopping list would be reviewed. A failed
// batch keeps the classifier's predictions.
func Run(ctx context.Context, records []dataset.Record, opts Options) ([]metrics.Result, error) {
	results := make([]metrics.Result, len(records))
	for i, r := range records {
		results[i] = metrics.Result{
			Name:      r.Name,
			Expected:  r.Expected(),
			Predicted: categories.CategoryFor(r.Name),
		}
	}
	if opts.Reviewer == nil {
		return results, nil
	}

	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	for start := 0; start < len(results); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(results))

		snapshot := make([]models.SnapshotItem, 0, end-start)
		for i := start; i < end; i++ {
			snapshot = append(snapshot, models.SnapshotItem{
				ID:       strconv.Itoa(i),
				Name:     results[i].Name,
				Category: results[i].Predicted,
			})
		}

		proposals, err := opts.Reviewer.ReviewCategories(ctx, snapshot)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Review batch failed", "from", start, "to", end, "err", err)
			continue
		}
		for _, p := range proposals {
			i, err := strconv.Atoi(p.ItemID)
			if err != nil || i < start || i >= end {
				continue
			}
			c := p.Category
			results[i].Reviewed = &c
		}
		slog.Debug("Reviewed batch", "from", start, "to", end, "proposals", len(proposals))
	}
	return results, nil
}
