// cmd/push-gateway/main.go
package main

import (
	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/service/push"
	"bazaar/internal/session"
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const serviceName = "push-gateway"

func main() {
	cfg := bootstrap.GetCurrentConfig()
	kafkaCfg := cfg.Infra.Kafka
	nodeID := serviceName + "-" + uuid.NewString()[:8]
	log := logger.Ctx(context.Background())

	redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	hub := push.NewHub(push.NewRedisPresence(redisClient, nodeID, 24*time.Hour))
	hubCtx, stopHub := context.WithCancel(context.Background())

	// 每个节点一个消费者组，所有节点都能收到全部聊天事件
	consumer := mq.NewConsumer("chat-event-consumer",
		mq.NewBroadcastReader(kafkaCfg.Brokers, kafkaCfg.ChatTopic, kafkaCfg.ChatGroupPrefix+"-"+nodeID),
		push.NewChatEventHandler(hub), nil)

	var origins []string
	if v := os.Getenv("PUSH_ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	gateway := push.NewGateway(hub, session.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), origins)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port + 2,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			go hub.Run(hubCtx)
			consumer.Start(hubCtx)
			gateway.RegisterRoutes(appCtx.Mux)
			log.Info().Str("node_id", nodeID).Msg("push gateway ready")
		},
		OnShutdown: func(ctx context.Context) {
			consumer.Stop()
			stopHub()
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close redis client")
			}
		},
	})
}
