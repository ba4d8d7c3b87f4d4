package infrastructure

import (
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/notification/domain"
	"context"
	"errors"
)

// HTTPMailer 把邮件投递给外部邮件网关
type HTTPMailer struct {
	client     *httpclient.Client
	gatewayURL string
}

func NewHTTPMailer(client *httpclient.Client, gatewayURL string) *HTTPMailer {
	return &HTTPMailer{client: client, gatewayURL: gatewayURL}
}

func (m *HTTPMailer) Send(ctx context.Context, e domain.Email) error {
	err := m.client.PostJSON(ctx, m.gatewayURL, e)
	var se *httpclient.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return &domain.PermanentError{Err: err}
	}
	return err
}

// LogMailer 未配置网关时使用，只打印日志
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, e domain.Email) error {
	logger.Ctx(ctx).Info().
		Str("to", e.To).
		Str("from", e.From).
		Str("subject", e.Subject).
		Int("body_bytes", len(e.Body)).
		Msg("mail gateway not configured, email logged only")
	return nil
}
