package infrastructure

import (
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/support/domain"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaChatPublisher 把聊天事件写入聊天 topic，以会话 id 作为 key 保证同一会话内有序
type KafkaChatPublisher struct {
	writer mq.Writer
}

func NewKafkaChatPublisher(writer mq.Writer) *KafkaChatPublisher {
	return &KafkaChatPublisher{writer: writer}
}

func (p *KafkaChatPublisher) PublishChat(ctx context.Context, e domain.ChatEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(e.ConversationID), body,
		kafka.Header{Key: "event-type", Value: []byte(e.Type)})
}
