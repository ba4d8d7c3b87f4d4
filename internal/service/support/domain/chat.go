package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Side 会话中的一方
type Side string

const (
	SideShopper Side = "shopper"
	SideAdmin   Side = "admin"
)

type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// Conversation 顾客与平台客服之间的会话。两个未读计数分别给两侧的列表使用
type Conversation struct {
	ID            string
	UserID        string
	Subject       string
	Status        ConversationStatus
	UnreadByAdmin int
	UnreadByUser  int
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewConversation(id, userID, subject string, now time.Time) *Conversation {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "Support request"
	}
	return &Conversation{
		ID: id, UserID: userID, Subject: subject, Status: ConversationOpen,
		LastMessageAt: now, CreatedAt: now, UpdatedAt: now,
	}
}

// Message 会话中的一条消息
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Sender         Side
	Body           string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// NewMessage 校验正文。关闭的会话不能再发消息
func NewMessage(id string, conv *Conversation, senderID string, sender Side, body string, now time.Time) (*Message, error) {
	if conv.Status == ConversationClosed {
		return nil, ErrConversationClosed
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	return &Message{ID: id, ConversationID: conv.ID, SenderID: senderID, Sender: sender, Body: body, CreatedAt: now}, nil
}

// Counterpart 对方
func (s Side) Counterpart() Side {
	if s == SideAdmin {
		return SideShopper
	}
	return SideAdmin
}

// ChatEventType 推送给 websocket 客户端的事件类型
type ChatEventType string

const (
	ChatMessageCreated ChatEventType = "message"
	ChatMessagesRead   ChatEventType = "read"
	ChatClosed         ChatEventType = "closed"
)

// ChatEvent 写入聊天 topic 的事件，push-gateway 按 UserID 路由给顾客，管理员接收全部
type ChatEvent struct {
	Type           ChatEventType `json:"type"`
	ConversationID string        `json:"conversationId"`
	UserID         string        `json:"userId"`
	MessageID      string        `json:"messageId,omitempty"`
	Sender         Side          `json:"sender,omitempty"`
	Body           string        `json:"body,omitempty"`
	Reader         Side          `json:"reader,omitempty"`
	OccurredAt     time.Time     `json:"occurredAt"`
}
