package infrastructure

import (
	"bazaar/internal/service/support/domain"
	"time"
)

// ContactModel 对应数据库中的 contact_forms 表
type ContactModel struct {
	ID        string               `gorm:"primaryKey;type:char(36)"`
	Name      string               `gorm:"type:varchar(120);not null"`
	Email     string               `gorm:"type:varchar(190);index;not null"`
	Subject   string               `gorm:"type:varchar(200);not null"`
	Message   string               `gorm:"type:text;not null"`
	Status    domain.ContactStatus `gorm:"type:varchar(16);index;not null;default:pending"`
	Reply     string               `gorm:"type:text"`
	RepliedBy string               `gorm:"type:varchar(190)"`
	RepliedAt *time.Time
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (ContactModel) TableName() string { return "contact_forms" }

// ConversationModel 对应数据库中的 chat_conversations 表
type ConversationModel struct {
	ID            string                    `gorm:"primaryKey;type:char(36)"`
	UserID        string                    `gorm:"type:char(36);index;not null"`
	Subject       string                    `gorm:"type:varchar(200);not null"`
	Status        domain.ConversationStatus `gorm:"type:varchar(16);index;not null;default:open"`
	UnreadByAdmin int                       `gorm:"not null;default:0"`
	UnreadByUser  int                       `gorm:"not null;default:0"`
	LastMessageAt time.Time                 `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ConversationModel) TableName() string { return "chat_conversations" }

// MessageModel 对应数据库中的 chat_messages 表
type MessageModel struct {
	ID             string      `gorm:"primaryKey;type:char(36)"`
	ConversationID string      `gorm:"type:char(36);index:idx_chat_messages_conv_created;not null"`
	SenderID       string      `gorm:"type:char(36);not null"`
	Sender         domain.Side `gorm:"type:varchar(16);not null"`
	Body           string      `gorm:"type:text;not null"`
	ReadAt         *time.Time
	CreatedAt      time.Time `gorm:"index:idx_chat_messages_conv_created"`
}

func (MessageModel) TableName() string { return "chat_messages" }

// Models 需要迁移的表
func Models() []any { return []any{&ContactModel{}, &ConversationModel{}, &MessageModel{}} }

func fromDomainContact(c *domain.ContactForm) *ContactModel {
	return &ContactModel{
		ID: c.ID, Name: c.Name, Email: c.Email, Subject: c.Subject, Message: c.Message, Status: c.Status,
		Reply: c.Reply, RepliedBy: c.RepliedBy, RepliedAt: c.RepliedAt, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toDomainContact(m *ContactModel) *domain.ContactForm {
	return &domain.ContactForm{
		ID: m.ID, Name: m.Name, Email: m.Email, Subject: m.Subject, Message: m.Message, Status: m.Status,
		Reply: m.Reply, RepliedBy: m.RepliedBy, RepliedAt: m.RepliedAt, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainConversation(c *domain.Conversation) *ConversationModel {
	return &ConversationModel{
		ID: c.ID, UserID: c.UserID, Subject: c.Subject, Status: c.Status,
		UnreadByAdmin: c.UnreadByAdmin, UnreadByUser: c.UnreadByUser,
		LastMessageAt: c.LastMessageAt, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toDomainConversation(m *ConversationModel) *domain.Conversation {
	return &domain.Conversation{
		ID: m.ID, UserID: m.UserID, Subject: m.Subject, Status: m.Status,
		UnreadByAdmin: m.UnreadByAdmin, UnreadByUser: m.UnreadByUser,
		LastMessageAt: m.LastMessageAt, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainMessage(m *MessageModel) *domain.Message {
	return &domain.Message{
		ID: m.ID, ConversationID: m.ConversationID, SenderID: m.SenderID, Sender: m.Sender,
		Body: m.Body, ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
	}
}
