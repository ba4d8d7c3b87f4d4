package infrastructure

import (
	"bazaar/internal/pkg/database"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// defaultRows 实现 domain.DefaultSet，M 是带 user_id / is_default 列的模型
type defaultRows[M any] struct {
	db       *gorm.DB
	notFound error
}

func (d defaultRows[M]) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := database.Conn(ctx, d.db).Model(new(M)).Where("user_id = ?", userID).Count(&n).Error
	return n, errors.Wrap(err, "count rows")
}

func (d defaultRows[M]) ClearDefault(ctx context.Context, userID string) error {
	err := database.Conn(ctx, d.db).Model(new(M)).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	return errors.Wrap(err, "clear default")
}

func (d defaultRows[M]) MarkDefault(ctx context.Context, userID, id string) error {
	res := database.Conn(ctx, d.db).Model(new(M)).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_default", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark default")
	}
	if res.RowsAffected == 0 {
		return d.notFound
	}
	return nil
}

func (d defaultRows[M]) Delete(ctx context.Context, userID, id string) (bool, error) {
	conn := database.Conn(ctx, d.db)
	var flags []bool
	if err := conn.Model(new(M)).Where("id = ? AND user_id = ?", id, userID).Pluck("is_default", &flags).Error; err != nil {
		return false, errors.Wrap(err, "load row")
	}
	if len(flags) == 0 {
		return false, d.notFound
	}
	if err := conn.Where("id = ? AND user_id = ?", id, userID).Delete(new(M)).Error; err != nil {
		return false, errors.Wrap(err, "delete row")
	}
	return flags[0], nil
}

func (d defaultRows[M]) LatestID(ctx context.Context, userID string) (string, error) {
	var ids []string
	err := database.Conn(ctx, d.db).Model(new(M)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return "", errors.Wrap(err, "latest row")
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}
