package application

import (
	"bazaar/internal/pkg/dispatch"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/support/domain"
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Actor 发起操作的一方。顾客只能访问自己的会话，管理员可以访问全部
type Actor struct {
	UserID string
	Side   domain.Side
}

// Chat 顾客与平台客服的会话。每条新消息写库后发布到聊天 topic，由 push-gateway 推送
type Chat struct {
	tx        domain.Transactor
	convs     domain.ConversationRepository
	messages  domain.MessageRepository
	publisher domain.ChatPublisher
	tracer    trace.Tracer
	dispatch  dispatch.Group

	now   func() time.Time
	newID func() string
}

func NewChat(tx domain.Transactor, convs domain.ConversationRepository, messages domain.MessageRepository,
	publisher domain.ChatPublisher, tracer trace.Tracer) *Chat {
	return &Chat{tx: tx, convs: convs, messages: messages, publisher: publisher, tracer: tracer,
		now: time.Now, newID: uuid.NewString}
}

// Wait 等待进行中的事件发布
func (c *Chat) Wait() { c.dispatch.Wait() }

// conversation 顾客访问别人的会话时返回 not found
func (c *Chat) conversation(ctx context.Context, actor Actor, id string) (*domain.Conversation, error) {
	conv, err := c.convs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Side != domain.SideAdmin && conv.UserID != actor.UserID {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (c *Chat) publish(ctx context.Context, e domain.ChatEvent) {
	c.dispatch.Go(ctx, "chat_"+string(e.Type), func(ctx context.Context) error {
		return c.publisher.PublishChat(ctx, e)
	})
}

// post 在事务内写消息并更新会话的未读计数
func (c *Chat) post(ctx context.Context, conv *domain.Conversation, actor Actor, body string) (*domain.Message, error) {
	now := c.now()
	msg, err := domain.NewMessage(c.newID(), conv, actor.UserID, actor.Side, body, now)
	if err != nil {
		return nil, err
	}
	if err := c.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := c.convs.RecordMessage(ctx, conv.ID, actor.Side.Counterpart(), now); err != nil {
		return nil, err
	}
	return msg, nil
}

func (c *Chat) messageEvent(conv *domain.Conversation, m *domain.Message) domain.ChatEvent {
	return domain.ChatEvent{
		Type: domain.ChatMessageCreated, ConversationID: conv.ID, UserID: conv.UserID,
		MessageID: m.ID, Sender: m.Sender, Body: m.Body, OccurredAt: m.CreatedAt,
	}
}

// OpenConversation 顾客开启会话，第一条消息和会话在同一事务中写入
func (c *Chat) OpenConversation(ctx context.Context, userID, subject, body string) (ConversationView, error) {
	ctx, span := c.tracer.Start(ctx, "chat.OpenConversation")
	defer span.End()

	actor := Actor{UserID: userID, Side: domain.SideShopper}
	conv := domain.NewConversation(c.newID(), userID, subject, c.now())
	var first *domain.Message
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.convs.Create(ctx, conv); err != nil {
			return err
		}
		m, err := c.post(ctx, conv, actor, body)
		first = m
		return err
	})
	if err != nil {
		return ConversationView{}, fail(span, err)
	}
	conv.UnreadByAdmin, conv.LastMessageAt = 1, first.CreatedAt
	c.publish(ctx, c.messageEvent(conv, first))
	logger.Ctx(ctx).Info().Str("conversation_id", conv.ID).Str("user_id", userID).Msg("support conversation opened")
	return toConversationView(conv, domain.SideShopper), nil
}

func (c *Chat) SendMessage(ctx context.Context, actor Actor, conversationID, body string) (MessageView, error) {
	ctx, span := c.tracer.Start(ctx, "chat.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID), attribute.String("sender", string(actor.Side)))

	var (
		conv *domain.Conversation
		msg  *domain.Message
	)
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if conv, err = c.conversation(ctx, actor, conversationID); err != nil {
			return err
		}
		msg, err = c.post(ctx, conv, actor, body)
		return err
	})
	if err != nil {
		return MessageView{}, fail(span, err)
	}
	c.publish(ctx, c.messageEvent(conv, msg))
	return toMessageView(msg), nil
}

func (c *Chat) ListMessages(ctx context.Context, actor Actor, conversationID string, page PageRequest) (Page[MessageView], error) {
	if _, err := c.conversation(ctx, actor, conversationID); err != nil {
		return Page[MessageView]{}, err
	}
	msgs, total, err := c.messages.ListByConversation(ctx, conversationID, page.Offset, page.Limit)
	if err != nil {
		return Page[MessageView]{}, err
	}
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageView(m))
	}
	return Page[MessageView]{Items: out, Total: total}, nil
}

// MarkRead 把对方发来的消息标记为已读，并清零自己一侧的未读数
func (c *Chat) MarkRead(ctx context.Context, actor Actor, conversationID string) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "chat.MarkRead")
	defer span.End()

	var (
		conv *domain.Conversation
		n    int64
	)
	now := c.now()
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if conv, err = c.conversation(ctx, actor, conversationID); err != nil {
			return err
		}
		if n, err = c.messages.MarkRead(ctx, conversationID, actor.Side, now); err != nil {
			return err
		}
		return c.convs.ClearUnread(ctx, conversationID, actor.Side, now)
	})
	if err != nil {
		return 0, fail(span, err)
	}
	if n > 0 {
		c.publish(ctx, domain.ChatEvent{
			Type: domain.ChatMessagesRead, ConversationID: conv.ID, UserID: conv.UserID, Reader: actor.Side, OccurredAt: now,
		})
	}
	return n, nil
}

// ListConversations 顾客看到自己的会话，管理员看到全部，有未读的排在前面
func (c *Chat) ListConversations(ctx context.Context, actor Actor, status domain.ConversationStatus, page PageRequest) (Page[ConversationView], error) {
	switch status {
	case "", domain.ConversationOpen, domain.ConversationClosed:
	default:
		return Page[ConversationView]{}, domain.ErrInvalidStatus
	}
	f := domain.ConversationFilter{Status: status, Offset: page.Offset, Limit: page.Limit}
	if actor.Side != domain.SideAdmin {
		f.UserID = actor.UserID
	}
	convs, total, err := c.convs.List(ctx, f)
	if err != nil {
		return Page[ConversationView]{}, err
	}
	out := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		out = append(out, toConversationView(conv, actor.Side))
	}
	return Page[ConversationView]{Items: out, Total: total}, nil
}

func (c *Chat) CloseConversation(ctx context.Context, actor Actor, conversationID string) (ConversationView, error) {
	ctx, span := c.tracer.Start(ctx, "chat.CloseConversation")
	defer span.End()

	conv, err := c.conversation(ctx, actor, conversationID)
	if err != nil {
		return ConversationView{}, fail(span, err)
	}
	if conv.Status == domain.ConversationClosed {
		return ConversationView{}, fail(span, domain.ErrConversationClosed)
	}
	now := c.now()
	if err := c.convs.Close(ctx, conv.ID, now); err != nil {
		return ConversationView{}, fail(span, err)
	}
	conv.Status, conv.UpdatedAt = domain.ConversationClosed, now
	c.publish(ctx, domain.ChatEvent{Type: domain.ChatClosed, ConversationID: conv.ID, UserID: conv.UserID, OccurredAt: now})
	return toConversationView(conv, actor.Side), nil
}
