package mq

import (
	"bazaar/internal/pkg/logger"
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reader 是 kafka.Reader 的最小接口
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc 处理单条消息，返回错误时消息会被送入死信队列
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Consumer 是一个驱动适配器：拉取消息、还原追踪上下文、调用 handler、提交 offset
type Consumer struct {
	name      string
	reader    Reader
	handle    HandlerFunc
	onFailure *FailureHandler // 可以为 nil，此时失败只记录日志

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(name string, reader Reader, handle HandlerFunc, onFailure *FailureHandler) *Consumer {
	return &Consumer{name: name, reader: reader, handle: handle, onFailure: onFailure}
}

// Start 在后台 goroutine 中开始消费
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		log := logger.Ctx(ctx)
		log.Info().Str("consumer", c.name).Msg("Kafka consumer started")
		for {
			// FetchMessage 而不是 ReadMessage，offset 在处理完成后再提交
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info().Str("consumer", c.name).Msg("Kafka consumer shutting down")
					return
				}
				log.Error().Err(err).Str("consumer", c.name).Msg("could not fetch message, retrying")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			c.process(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("consumer", c.name).Msg("failed to commit message")
			}
		}
	}()
}

func (c *Consumer) process(parent context.Context, msg kafka.Message) {
	ctx := ExtractTraceContext(parent, msg.Headers)
	ctx, span := otel.Tracer("mq").Start(ctx, c.name+".process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	if err := c.handle(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if c.onFailure != nil {
			c.onFailure.Handle(ctx, msg, err)
			return
		}
		logger.Ctx(ctx).Error().Err(err).Str("consumer", c.name).Int64("offset", msg.Offset).Msg("message handling failed")
	}
}

// Stop 停止拉取并等待当前消息处理完
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		logger.Ctx(context.Background()).Warn().Err(err).Str("consumer", c.name).Msg("error closing reader")
	}
	logger.Ctx(context.Background()).Info().Str("consumer", c.name).Msg("Kafka consumer stopped")
}
