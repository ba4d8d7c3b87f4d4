package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// ContactStatus 联系表单状态，只用于管理后台筛选
type ContactStatus string

const (
	ContactPending ContactStatus = "pending"
	ContactReplied ContactStatus = "replied"
	ContactClosed  ContactStatus = "closed"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactPending, ContactReplied, ContactClosed:
		return true
	}
	return false
}

const MaxMessageLength = 4000

// ContactForm 访客通过“联系我们”提交的消息
type ContactForm struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	Status    ContactStatus
	Reply     string
	RepliedBy string
	RepliedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContactForm 工厂函数，负责输入清洗
func NewContactForm(id, name, email, subject, message string, now time.Time) (*ContactForm, error) {
	name, subject, message = strings.TrimSpace(name), strings.TrimSpace(subject), strings.TrimSpace(message)
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if name == "" || message == "" || err != nil {
		return nil, ErrInvalidContact
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if subject == "" {
		subject = "Contact request"
	}
	return &ContactForm{
		ID: id, Name: name, Email: strings.ToLower(addr.Address), Subject: subject, Message: message,
		Status: ContactPending, CreatedAt: now, UpdatedAt: now,
	}, nil
}

// Answer 记录管理员回复。已关闭的消息不能再回复，已回复的可以追加
func (c *ContactForm) Answer(reply, by string, now time.Time) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ErrEmptyReply
	}
	if c.Status == ContactClosed {
		return ErrContactClosed
	}
	c.Reply, c.RepliedBy, c.RepliedAt = reply, by, &now
	c.Status, c.UpdatedAt = ContactReplied, now
	return nil
}

func (c *ContactForm) Close(now time.Time) error {
	if c.Status == ContactClosed {
		return ErrContactClosed
	}
	c.Status, c.UpdatedAt = ContactClosed, now
	return nil
}
