// Package application 渲染通知事件并通过邮件通道发送
package application

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/service/notification/domain"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Deliverer 处理一条通知事件：渲染、发送、遇到临时错误按退避重试
type Deliverer struct {
	renderer domain.Renderer
	mailer   domain.Mailer
	tracer   trace.Tracer

	attempts int
	backoff  time.Duration
}

func NewDeliverer(renderer domain.Renderer, mailer domain.Mailer, tracer trace.Tracer) *Deliverer {
	return &Deliverer{renderer: renderer, mailer: mailer, tracer: tracer, attempts: 3, backoff: 500 * time.Millisecond}
}

// WithRetry 调整重试次数和初始退避，attempts 至少为 1
func (d *Deliverer) WithRetry(attempts int, backoff time.Duration) *Deliverer {
	if attempts < 1 {
		attempts = 1
	}
	d.attempts, d.backoff = attempts, backoff
	return d
}

// Deliver 返回错误时由调用方决定是否进入死信队列
func (d *Deliverer) Deliver(ctx context.Context, e domain.Event) (err error) {
	ctx, span := d.tracer.Start(ctx, "Deliverer.Deliver", trace.WithAttributes(
		attribute.String("notification.type", string(e.Type)),
		attribute.String("notification.id", e.ID),
	))
	defer func() {
		result := "sent"
		if err != nil {
			result = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.NotificationsDispatched.WithLabelValues(string(e.Type), result).Inc()
		span.End()
	}()

	if e.To == "" {
		return fmt.Errorf("%w: event %s has no recipient", domain.ErrInvalidEvent, e.ID)
	}
	mail, err := d.renderer.Render(e)
	if err != nil {
		return err
	}

	wait := d.backoff
	for attempt := 1; ; attempt++ {
		err = d.mailer.Send(ctx, mail)
		if err == nil {
			logger.Ctx(ctx).Info().Str("event_id", e.ID).Str("type", string(e.Type)).Int("attempt", attempt).Msg("notification sent")
			return nil
		}
		var perm *domain.PermanentError
		if errors.As(err, &perm) || attempt >= d.attempts {
			return err
		}
		logger.Ctx(ctx).Warn().Err(err).Str("event_id", e.ID).Int("attempt", attempt).Msg("send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}
