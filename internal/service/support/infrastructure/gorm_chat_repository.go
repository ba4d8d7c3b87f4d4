package infrastructure

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/service/support/domain"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// unreadColumn reader 一侧的未读计数列
func unreadColumn(side domain.Side) string {
	if side == domain.SideAdmin {
		return "unread_by_admin"
	}
	return "unread_by_user"
}

// GormConversationRepository 是 ConversationRepository 的 GORM 实现
type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	return errors.Wrap(database.Conn(ctx, r.db).Create(fromDomainConversation(c)).Error, "create conversation")
}

func (r *GormConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var m ConversationModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, errors.Wrap(err, "find conversation")
	}
	return toDomainConversation(&m), nil
}

func (r *GormConversationRepository) List(ctx context.Context, f domain.ConversationFilter) ([]*domain.Conversation, int64, error) {
	// 管理员看全部会话，按自己一侧的未读排序；顾客只看自己的
	viewer := domain.SideAdmin
	if f.UserID != "" {
		viewer = domain.SideShopper
	}
	base := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&ConversationModel{})
		if f.UserID != "" {
			q = q.Where("user_id = ?", f.UserID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count conversations")
	}
	var models []ConversationModel
	err := base().
		Order("CASE WHEN " + unreadColumn(viewer) + " > 0 THEN 0 ELSE 1 END").
		Order("last_message_at DESC, id DESC").
		Offset(f.Offset).Limit(f.Limit).Find(&models).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list conversations")
	}
	out := make([]*domain.Conversation, 0, len(models))
	for i := range models {
		out = append(out, toDomainConversation(&models[i]))
	}
	return out, total, nil
}

func (r *GormConversationRepository) RecordMessage(ctx context.Context, id string, unreadFor domain.Side, at time.Time) error {
	col := unreadColumn(unreadFor)
	res := database.Conn(ctx, r.db).Model(&ConversationModel{}).Where("id = ?", id).
		Updates(map[string]any{
			col:               gorm.Expr(col + " + 1"),
			"last_message_at": at,
			"updated_at":      at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "record conversation message")
	}
	if res.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *GormConversationRepository) ClearUnread(ctx context.Context, id string, reader domain.Side, at time.Time) error {
	err := database.Conn(ctx, r.db).Model(&ConversationModel{}).Where("id = ?", id).
		Updates(map[string]any{unreadColumn(reader): 0, "updated_at": at}).Error
	return errors.Wrap(err, "clear unread")
}

// Close 以 open 为条件关闭
func (r *GormConversationRepository) Close(ctx context.Context, id string, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&ConversationModel{}).
		Where("id = ? AND status = ?", id, domain.ConversationOpen).
		Updates(map[string]any{"status": domain.ConversationClosed, "updated_at": at})
	if res.Error != nil {
		return errors.Wrap(res.Error, "close conversation")
	}
	if res.RowsAffected == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

// GormMessageRepository 是 MessageRepository 的 GORM 实现
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	err := database.Conn(ctx, r.db).Create(&MessageModel{
		ID: m.ID, ConversationID: m.ConversationID, SenderID: m.SenderID, Sender: m.Sender,
		Body: m.Body, ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
	}).Error
	return errors.Wrap(err, "create message")
}

// ListByConversation 按时间正序返回
func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string, offset, limit int) ([]*domain.Message, int64, error) {
	q := database.Conn(ctx, r.db).Model(&MessageModel{}).Where("conversation_id = ?", conversationID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count messages")
	}
	var models []MessageModel
	err := database.Conn(ctx, r.db).Where("conversation_id = ?", conversationID).
		Order("created_at, id").Offset(offset).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list messages")
	}
	out := make([]*domain.Message, 0, len(models))
	for i := range models {
		out = append(out, toDomainMessage(&models[i]))
	}
	return out, total, nil
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, conversationID string, reader domain.Side, at time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).Model(&MessageModel{}).
		Where("conversation_id = ? AND sender <> ? AND read_at IS NULL", conversationID, reader).
		Update("read_at", at)
	return res.RowsAffected, errors.Wrap(res.Error, "mark messages read")
}
