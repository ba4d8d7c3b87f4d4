package infrastructure

import (
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/notification/domain"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher 把通知事件写入通知 topic，收件人作为 key
type KafkaPublisher struct {
	writer mq.Writer
	now    func() time.Time
}

func NewKafkaPublisher(writer mq.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	err = mq.ProduceMessage(ctx, p.writer, []byte(e.To), body,
		kafka.Header{Key: "event-type", Value: []byte(e.Type)})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.NotificationsDispatched.WithLabelValues(string(e.Type), "published_"+result).Inc()
	return err
}
