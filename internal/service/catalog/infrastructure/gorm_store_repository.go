package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/catalog/domain"
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormStoreRepository 是 StoreRepository 的 GORM 实现
type GormStoreRepository struct {
	db *gorm.DB
}

func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

func (r *GormStoreRepository) Create(ctx context.Context, s *domain.Store) error {
	err := database.Conn(ctx, r.db).Create(FromDomainStore(s)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 区分是哪个唯一键冲突，给用户可操作的提示
		if _, e := r.FindByUsername(ctx, s.Username); e == nil {
			return domain.ErrDuplicateUsername
		}
		if _, e := r.FindByEmail(ctx, s.Email); e == nil {
			return domain.ErrDuplicateStoreEmail
		}
		return domain.ErrAlreadyHasStore
	}
	return errors.Wrap(err, "create store")
}

func (r *GormStoreRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Store, error) {
	var m StoreModel
	err := database.Conn(ctx, r.db).Where(query, args...).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, errors.Wrap(err, "find store")
	}
	return ToDomainStore(&m), nil
}

func (r *GormStoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormStoreRepository) FindByUsername(ctx context.Context, username string) (*domain.Store, error) {
	return r.findOne(ctx, "username = ?", strings.ToLower(username))
}

func (r *GormStoreRepository) FindByEmail(ctx context.Context, email string) (*domain.Store, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *GormStoreRepository) FindByUserID(ctx context.Context, userID string) (*domain.Store, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *GormStoreRepository) FindByResetToken(ctx context.Context, token string) (*domain.Store, error) {
	if token == "" {
		return nil, domain.ErrStoreNotFound
	}
	return r.findOne(ctx, "reset_token = ?", token)
}

func (r *GormStoreRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Store, error) {
	out := make(map[string]*domain.Store, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []StoreModel
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find stores")
	}
	for i := range models {
		out[models[i].ID] = ToDomainStore(&models[i])
	}
	return out, nil
}

// UpdateStatus 条件更新: WHERE id = ? AND status = from
func (r *GormStoreRepository) UpdateStatus(ctx context.Context, s *domain.Store, from domain.StoreStatus) error {
	res := database.Conn(ctx, r.db).Model(&StoreModel{}).
		Where("id = ? AND status = ?", s.ID, from).
		Updates(map[string]any{
			"status":     s.Status,
			"is_active":  s.IsActive,
			"updated_at": s.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update store status")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *GormStoreRepository) UpdateResetToken(ctx context.Context, id, token string, expiry *time.Time) error {
	var tokenVal any
	if token != "" {
		tokenVal = token
	}
	res := database.Conn(ctx, r.db).Model(&StoreModel{}).Where("id = ?", id).
		Updates(map[string]any{"reset_token": tokenVal, "reset_token_expiry": expiry})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update reset token")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}

func (r *GormStoreRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := database.Conn(ctx, r.db).Model(&StoreModel{}).Where("id = ?", id).
		Updates(map[string]any{"password": passwordHash, "reset_token": nil, "reset_token_expiry": nil})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update store password")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}

func (r *GormStoreRepository) List(ctx context.Context, f domain.StoreFilter) ([]*domain.Store, int64, error) {
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&StoreModel{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + escapeLike(strings.ToLower(s)) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR username LIKE ? OR email LIKE ?)", like, like, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count stores")
	}
	var models []StoreModel
	if err := base().Order("created_at DESC, id").Offset(f.Offset).Limit(f.Limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list stores")
	}
	out := make([]*domain.Store, 0, len(models))
	for i := range models {
		out = append(out, ToDomainStore(&models[i]))
	}
	return out, total, nil
}

type statusCount struct {
	Status string
	N      int64
}

func (r *GormStoreRepository) CountByStatus(ctx context.Context) (map[domain.StoreStatus]int64, error) {
	var rows []statusCount
	err := database.Conn(ctx, r.db).Model(&StoreModel{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count stores by status")
	}
	out := make(map[domain.StoreStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.StoreStatus(row.Status)] = row.N
	}
	return out, nil
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
