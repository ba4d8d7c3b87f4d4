package application

import (
	"bazaar/internal/pkg/dispatch"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/support/domain"
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Contacts “联系我们”表单：访客提交，管理员回复或关闭
type Contacts struct {
	contacts domain.ContactRepository
	notifier domain.Notifier
	tracer   trace.Tracer
	dispatch dispatch.Group

	now   func() time.Time
	newID func() string
}

func NewContacts(contacts domain.ContactRepository, notifier domain.Notifier, tracer trace.Tracer) *Contacts {
	return &Contacts{contacts: contacts, notifier: notifier, tracer: tracer, now: time.Now, newID: uuid.NewString}
}

// Wait 等待进行中的回复邮件发送完毕
func (c *Contacts) Wait() { c.dispatch.Wait() }

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (c *Contacts) Submit(ctx context.Context, in ContactInput) (ContactView, error) {
	ctx, span := c.tracer.Start(ctx, "contacts.Submit")
	defer span.End()

	form, err := domain.NewContactForm(c.newID(), in.Name, in.Email, in.Subject, in.Message, c.now())
	if err != nil {
		return ContactView{}, fail(span, err)
	}
	if err := c.contacts.Create(ctx, form); err != nil {
		return ContactView{}, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("contact_id", form.ID).Msg("contact message received")
	return toContactView(form), nil
}

func (c *Contacts) List(ctx context.Context, status domain.ContactStatus, page PageRequest) (Page[ContactView], error) {
	if status != "" && !status.Valid() {
		return Page[ContactView]{}, domain.ErrInvalidStatus
	}
	forms, total, err := c.contacts.List(ctx, domain.ContactFilter{Status: status, Offset: page.Offset, Limit: page.Limit})
	if err != nil {
		return Page[ContactView]{}, err
	}
	out := make([]ContactView, 0, len(forms))
	for _, f := range forms {
		out = append(out, toContactView(f))
	}
	return Page[ContactView]{Items: out, Total: total}, nil
}

// Summary 各状态的数量，管理后台首页使用
func (c *Contacts) Summary(ctx context.Context) (map[domain.ContactStatus]int64, error) {
	return c.contacts.CountByStatus(ctx)
}

func (c *Contacts) update(ctx context.Context, id string, apply func(*domain.ContactForm, time.Time) error) (*domain.ContactForm, error) {
	form, err := c.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := form.Status
	if err := apply(form, c.now()); err != nil {
		return nil, err
	}
	if err := c.contacts.Update(ctx, form, from); err != nil {
		return nil, err
	}
	return form, nil
}

// Reply 保存回复后异步发邮件，邮件失败不影响回复状态
func (c *Contacts) Reply(ctx context.Context, id, adminEmail, reply string) (ContactView, error) {
	ctx, span := c.tracer.Start(ctx, "contacts.Reply")
	defer span.End()
	span.SetAttributes(attribute.String("contact.id", id))

	form, err := c.update(ctx, id, func(f *domain.ContactForm, now time.Time) error {
		return f.Answer(reply, adminEmail, now)
	})
	if err != nil {
		return ContactView{}, fail(span, err)
	}
	c.dispatch.Go(ctx, "contact_reply", func(ctx context.Context) error {
		return c.notifier.NotifyContactReply(ctx, form)
	})
	return toContactView(form), nil
}

func (c *Contacts) Close(ctx context.Context, id string) (ContactView, error) {
	ctx, span := c.tracer.Start(ctx, "contacts.Close")
	defer span.End()

	form, err := c.update(ctx, id, func(f *domain.ContactForm, now time.Time) error { return f.Close(now) })
	if err != nil {
		return ContactView{}, fail(span, err)
	}
	return toContactView(form), nil
}
