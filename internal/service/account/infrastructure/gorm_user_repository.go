package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/account/domain"
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository 是 UserRepository 的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := database.Conn(ctx, r.db).Create(fromDomainUser(u)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return errors.Wrap(err, "create user")
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var m UserModel
	if err := database.Conn(ctx, r.db).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "find user")
	}
	return toDomainUser(&m), nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) SetMember(ctx context.Context, id string, member bool) error {
	res := database.Conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", id).Update("is_member", member)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set member")
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// LockForUpdate SELECT ... FOR UPDATE，SQLite 下 gorm 会忽略锁子句
func (r *GormUserRepository) LockForUpdate(ctx context.Context, id string) error {
	var m UserModel
	err := database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return errors.Wrap(err, "lock user")
}
