package push

import (
	"bazaar/internal/pkg/mq"
	support "bazaar/internal/service/support/domain"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// NewChatEventHandler 聊天 topic 的消费者，每个网关节点用自己的消费者组，因此都能看到全部事件
func NewChatEventHandler(hub *Hub) mq.HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		var e support.ChatEvent
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			return fmt.Errorf("decode chat event: %w", err)
		}
		return hub.Publish(ctx, e)
	}
}
