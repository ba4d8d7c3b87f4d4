package domain

import (
	"context"
	"time"
)

// ContactFilter 管理后台的联系表单筛选
type ContactFilter struct {
	Status ContactStatus
	Offset int
	Limit  int
}

type ContactRepository interface {
	Create(ctx context.Context, c *ContactForm) error
	FindByID(ctx context.Context, id string) (*ContactForm, error)
	// Update 仅当状态仍为 from 时写入，否则返回 ErrStateChanged
	Update(ctx context.Context, c *ContactForm, from ContactStatus) error
	List(ctx context.Context, f ContactFilter) ([]*ContactForm, int64, error)
	CountByStatus(ctx context.Context) (map[ContactStatus]int64, error)
}

// ConversationFilter UserID 为空表示管理员查看全部，列表按“有未读在前、最近消息在前”排序
type ConversationFilter struct {
	UserID string
	Status ConversationStatus
	Offset int
	Limit  int
}

type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	FindByID(ctx context.Context, id string) (*Conversation, error)
	List(ctx context.Context, f ConversationFilter) ([]*Conversation, int64, error)
	// RecordMessage 更新最近消息时间，并给 unreadFor 一侧的未读数加一
	RecordMessage(ctx context.Context, id string, unreadFor Side, at time.Time) error
	// ClearUnread 清零 reader 一侧的未读数
	ClearUnread(ctx context.Context, id string, reader Side, at time.Time) error
	Close(ctx context.Context, id string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListByConversation(ctx context.Context, conversationID string, offset, limit int) ([]*Message, int64, error)
	// MarkRead 把对方发来的未读消息标记为已读，返回更新条数
	MarkRead(ctx context.Context, conversationID string, reader Side, at time.Time) (int64, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 回复联系表单后给访客发邮件
type Notifier interface {
	NotifyContactReply(ctx context.Context, c *ContactForm) error
}

// ChatPublisher 发布聊天事件
type ChatPublisher interface {
	PublishChat(ctx context.Context, e ChatEvent) error
}
