// Package interfaces 把通知 topic 和死信 topic 接到 mq.Consumer 上
package interfaces

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/notification/domain"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Deliverer 由 application.Deliverer 实现
type Deliverer interface {
	Deliver(ctx context.Context, e domain.Event) error
}

// NewEventHandler 解码通知事件并投递，返回的错误会让消息进入死信队列
func NewEventHandler(d Deliverer) mq.HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		var e domain.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			return fmt.Errorf("decode notification event: %w", err)
		}
		return d.Deliver(ctx, e)
	}
}

// NewDeadLetterHandler 只记录死信，消息总是被视为已处理
func NewDeadLetterHandler() mq.HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		logDeadLetter(ctx, msg)
		return nil
	}
}

func logDeadLetter(ctx context.Context, msg kafka.Message) {
	headers := mq.HeaderMap(msg.Headers)

	logger.Ctx(ctx).Error().
		Str("reason", "dead_letter_message_received").
		Str("original_topic", headers[mq.HeaderOriginalTopic]).
		Str("original_partition", headers[mq.HeaderOriginalPartition]).
		Str("original_offset", headers[mq.HeaderOriginalOffset]).
		Str("exception_fqcn", headers[mq.HeaderExceptionFqcn]).
		Str("exception_message", headers[mq.HeaderExceptionMessage]).
		Str("event_type", headers["event-type"]).
		Str("key", string(msg.Key)).
		Msg("notification moved to dead letter topic")
}
