// cmd/notification-service/main.go
package main

import (
	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/notification/application"
	"bazaar/internal/service/notification/domain"
	"bazaar/internal/service/notification/infrastructure"
	"bazaar/internal/service/notification/interfaces"
	"context"

	"go.opentelemetry.io/otel"
)

const serviceName = "notification-service"

func main() {
	cfg := bootstrap.GetCurrentConfig()
	kafkaCfg := cfg.Infra.Kafka
	tracer := otel.Tracer(serviceName)
	log := logger.Ctx(context.Background())

	renderer, err := infrastructure.NewTemplateRenderer(cfg.Mail.From)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse email templates")
	}
	var mailer domain.Mailer = infrastructure.LogMailer{}
	if cfg.Mail.GatewayURL != "" {
		mailer = infrastructure.NewHTTPMailer(httpclient.NewClient(tracer), cfg.Mail.GatewayURL)
	}
	deliverer := application.NewDeliverer(renderer, mailer, tracer)

	dltWriter := mq.NewKafkaWriter(kafkaCfg.Brokers, kafkaCfg.DLTTopic)
	consumer := mq.NewConsumer("notification-consumer",
		mq.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.NotificationTopic, kafkaCfg.NotificationGroup),
		interfaces.NewEventHandler(deliverer), mq.NewFailureHandler(dltWriter))
	dltConsumer := mq.NewConsumer("notification-dlt-consumer",
		mq.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.DLTTopic, kafkaCfg.DLTGroup),
		interfaces.NewDeadLetterHandler(), nil)

	// HTTP 只暴露 /healthz 和 /metrics
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port + 1,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			consumer.Start(context.Background())
			dltConsumer.Start(context.Background())
		},
		OnShutdown: func(ctx context.Context) {
			consumer.Stop()
			dltConsumer.Stop()
			if err := dltWriter.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close DLT writer")
			}
		},
	})
}
