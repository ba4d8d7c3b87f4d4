// cmd/payment-migrator/main.go
//
// 一次性任务：把历史订单里的支付方式写法统一改写为 COD / CARD / UPI。
// 多个实例同时启动时，通过 ZooKeeper 锁保证只有一个在跑。
package main

import (
	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/tracing"
	"bazaar/internal/pkg/zookeeper"
	orderapp "bazaar/internal/service/order/application"
	orderinfra "bazaar/internal/service/order/infrastructure"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
)

const (
	serviceName  = "payment-migrator"
	lockResource = "payment-method-migration"
)

func main() {
	batch := flag.Int("batch", 200, "rows per batch")
	lockWait := flag.Duration("lock-wait", 30*time.Second, "how long to wait for the migration lock")
	flag.Parse()

	cfg := bootstrap.GetCurrentConfig()
	logger.Init(serviceName, cfg.App.LogLevel, cfg.App.Env)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	log := logger.Ctx(ctx)

	tp, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName:    serviceName,
		Environment:    cfg.App.Env,
		JaegerEndpoint: cfg.Infra.Jaeger.Endpoint,
		SampleRatio:    1,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	code := run(ctx, cfg, *batch, *lockWait)
	// os.Exit 不会执行 defer，先把 span 刷出去
	_ = tp.Shutdown(context.Background())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *bootstrap.Config, batch int, lockWait time.Duration) int {
	log := logger.Ctx(ctx)

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to zookeeper")
		return 1
	}
	defer zkConn.Close()

	lock, err := zookeeper.NewDistributedLock(zkConn, lockResource)
	if err != nil {
		log.Error().Err(err).Msg("failed to create migration lock")
		return 1
	}
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()
	if err := lock.Lock(lockCtx); err != nil {
		log.Error().Err(err).Msg("another migrator holds the lock")
		return 2
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release migration lock")
		}
	}()

	db, err := database.OpenMySQL(cfg.Infra.MySQL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to mysql")
		return 1
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 迁移只用到订单仓储，下单相关的端口不需要
	orders := orderapp.NewOrders(database.NewTransactor(db), orderinfra.NewGormOrderRepository(db),
		nil, nil, nil, nil, otel.Tracer(serviceName))

	report, err := orders.MigratePaymentMethods(ctx, batch)
	if err != nil {
		log.Error().Err(err).Interface("report", report).Msg("payment method migration aborted")
		return 1
	}
	if report.Unknown > 0 {
		log.Warn().Int("unknown", report.Unknown).Msg("some orders need manual review")
	}
	return 0
}
