package store

import (
	"context"

	"github.com/AdamBeresnev/bracketd/internal/utils"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize    = 30
	maxConcurrentChunks = 4
)

// fetchByIDs loads the rows of table whose column is one of ids. Ids are deduplicated and
// looked up in chunks of at most chunkSize so no single IN list outgrows what the store accepts.
// Chunks run concurrently and results keep chunk order.
func fetchByIDs[T any](ctx context.Context, q sqlx.QueryerContext, table, column string, ids []uuid.UUID, chunkSize int) ([]T, error) {
	unique := utils.Dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := utils.Chunk(unique, chunkSize)
	results := make([][]T, len(chunks))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentChunks)
	for i, chunk := range chunks {
		eg.Go(func() error {
			keys := make([]string, len(chunk))
			for j, id := range chunk {
				keys[j] = id.String()
			}
			query, args, err := sq.Select("*").From(table).Where(sq.Eq{column: keys}).ToSql()
			if err != nil {
				return err
			}
			var rows []T
			if err := sqlx.SelectContext(gctx, q, &rows, query, args...); err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, wrapErr(err, "failed to fetch %s by %s", table, column)
	}

	var rows []T
	for _, chunk := range results {
		rows = append(rows, chunk...)
	}
	return rows, nil
}
