package repositories

import (
	"context"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"
)

type NarrativeRepository interface {
	InsertTx(ctx context.Context, tx bun.Tx, input *models.NarrativeInput) error
	List(ctx context.Context, civilizationID string, unprocessedOnly bool, limit int) ([]*models.NarrativeInput, error)
	MarkProcessed(ctx context.Context, ids []string) (int64, error)
}

type narrativeRepository struct {
	*BaseRepository
}

func NewNarrativeRepository(db *bun.DB) NarrativeRepository {
	return &narrativeRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// InsertTx writes inside the caller's transaction so a narrative row never
// outlives a rolled-back effect application.
func (r *narrativeRepository) InsertTx(ctx context.Context, tx bun.Tx, input *models.NarrativeInput) error {
	_, err := tx.NewInsert().
		Model(input).
		Exec(ctx)
	return r.HandleErrorWithID("insert_narrative", "narrative_input", input.ID, err)
}

func (r *narrativeRepository) List(ctx context.Context, civilizationID string, unprocessedOnly bool, limit int) ([]*models.NarrativeInput, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var inputs []*models.NarrativeInput
	q := r.db.NewSelect().
		Model(&inputs).
		Where("civilization_id = ?", civilizationID).
		Order("created_at DESC").
		Limit(limit)
	if unprocessedOnly {
		q = q.Where("processed_at IS NULL")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("list_narratives", "narrative_input", civilizationID, err)
	}
	return inputs, nil
}

// MarkProcessed stamps each row at most once; already-processed rows keep
// their original timestamp.
func (r *narrativeRepository) MarkProcessed(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.NarrativeInput)(nil)).
		Set("processed_at = ?", time.Now()).
		Where("id IN (?)", bun.In(ids)).
		Where("processed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("mark_processed", "narrative_input", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, r.HandleError("mark_processed", "narrative_input", err)
	}
	return rows, nil
}
