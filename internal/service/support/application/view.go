package application

import (
	"bazaar/internal/service/support/domain"
	"time"
)

type ContactView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	Reply     string     `json:"reply,omitempty"`
	RepliedBy string     `json:"repliedBy,omitempty"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toContactView(c *domain.ContactForm) ContactView {
	return ContactView{
		ID: c.ID, Name: c.Name, Email: c.Email, Subject: c.Subject, Message: c.Message,
		Status: string(c.Status), Reply: c.Reply, RepliedBy: c.RepliedBy, RepliedAt: c.RepliedAt,
		CreatedAt: c.CreatedAt,
	}
}

type ConversationView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Subject       string    `json:"subject"`
	Status        string    `json:"status"`
	Unread        int       `json:"unread"` // 当前查看者一侧的未读数
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toConversationView(c *domain.Conversation, viewer domain.Side) ConversationView {
	unread := c.UnreadByUser
	if viewer == domain.SideAdmin {
		unread = c.UnreadByAdmin
	}
	return ConversationView{
		ID: c.ID, UserID: c.UserID, Subject: c.Subject, Status: string(c.Status),
		Unread: unread, LastMessageAt: c.LastMessageAt, CreatedAt: c.CreatedAt,
	}
}

type MessageView struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	Sender         string     `json:"sender"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toMessageView(m *domain.Message) MessageView {
	return MessageView{
		ID: m.ID, ConversationID: m.ConversationID, SenderID: m.SenderID, Sender: string(m.Sender),
		Body: m.Body, ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
	}
}

// Page 分页结果
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// PageRequest 分页参数
type PageRequest struct {
	Offset int
	Limit  int
}
