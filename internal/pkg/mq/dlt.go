package mq

import (
	"bazaar/internal/pkg/logger"
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// 死信消息头
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// FailureHandler 把处理失败的消息转发到死信 topic
type FailureHandler struct {
	dlt Writer
}

func NewFailureHandler(dlt Writer) *FailureHandler {
	return &FailureHandler{dlt: dlt}
}

// DeadLetter 根据原消息和失败原因构造死信消息
func DeadLetter(msg kafka.Message, cause error) kafka.Message {
	headers := append([]kafka.Header(nil), msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
		kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

// Handle 投递死信，投递失败只记录日志，原消息仍会被提交
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) {
	if err := h.dlt.WriteMessages(ctx, DeadLetter(msg, cause)); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("original_topic", msg.Topic).
			Int64("original_offset", msg.Offset).
			Msg("failed to publish dead letter")
		return
	}
	logger.Ctx(ctx).Warn().Err(cause).
		Str("original_topic", msg.Topic).
		Int64("original_offset", msg.Offset).
		Msg("message moved to DLT")
}

// HeaderMap 把消息头转换成 map，便于日志输出
func HeaderMap(headers []kafka.Header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
