package rank

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/renoworks/pricing-engine/internal/textutil"
)

// RefreshEmbeddings backfills vectors for catalog materials that have none.
// Texts are embedded in one batch call and the per-row updates run
// concurrently. Returns the number of materials updated.
func (r *Ranker) RefreshEmbeddings(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	materials, err := r.store.ListMaterialsWithoutEmbedding(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(materials) == 0 {
		return 0, nil
	}

	texts := make([]string, len(materials))
	for i, m := range materials {
		texts[i] = textutil.Normalize(m.Name + " " + m.Description)
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range materials {
		g.Go(func() error {
			return r.store.UpdateMaterialEmbedding(gctx, materials[i].ID, vectors[i])
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	zap.L().Info("refreshed material embeddings", zap.Int("count", len(materials)))
	return len(materials), nil
}
