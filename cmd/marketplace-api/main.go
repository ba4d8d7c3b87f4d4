// cmd/marketplace-api/main.go
package main

import (
	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/session"
	"context"
	"net/http"

	accountapp "bazaar/internal/service/account/application"
	accountinfra "bazaar/internal/service/account/infrastructure"
	accounthttp "bazaar/internal/service/account/interfaces"
	catalogapp "bazaar/internal/service/catalog/application"
	cataloginfra "bazaar/internal/service/catalog/infrastructure"
	"bazaar/internal/service/catalog/infrastructure/rule"
	cataloghttp "bazaar/internal/service/catalog/interfaces"
	notificationinfra "bazaar/internal/service/notification/infrastructure"
	orderapp "bazaar/internal/service/order/application"
	orderinfra "bazaar/internal/service/order/infrastructure"
	"bazaar/internal/service/order/infrastructure/adapter"
	orderhttp "bazaar/internal/service/order/interfaces"
	supportapp "bazaar/internal/service/support/application"
	supportinfra "bazaar/internal/service/support/infrastructure"
	supporthttp "bazaar/internal/service/support/interfaces"

	"go.opentelemetry.io/otel"
)

const serviceName = "marketplace-api"

// main 是组装根：创建所有依赖，然后交给 bootstrap 启动 HTTP 服务
func main() {
	cfg := bootstrap.GetCurrentConfig()
	ctx := context.Background()
	tracer := otel.Tracer(serviceName)
	log := logger.Ctx(ctx)

	// 1. 基础设施
	db, err := database.OpenMySQL(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if cfg.Infra.MySQL.AutoMigrate {
		models := append(cataloginfra.Models(), accountinfra.Models()...)
		models = append(models, orderinfra.Models()...)
		models = append(models, supportinfra.Models()...)
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatal().Err(err).Msg("auto migration failed")
		}
	}
	tx := database.NewTransactor(db)

	redisClient, err := redis.NewClient(ctx, cfg.Infra.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	notificationWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic)
	chatWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.ChatTopic)
	publisher := notificationinfra.NewKafkaPublisher(notificationWriter)

	issuer := session.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	limiter := session.NewLoginLimiter(redisClient, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow)
	secureCookie := cfg.App.Env == "prod"

	// 2. 仓储
	stores := cataloginfra.NewGormStoreRepository(db)
	products := cataloginfra.NewGormProductRepository(db)
	coupons := cataloginfra.NewGormCouponRepository(db)
	users := accountinfra.NewGormUserRepository(db)
	orders := orderinfra.NewGormOrderRepository(db)

	// 3. 应用服务
	cache := cataloginfra.NewRedisListingCache(redisClient, cfg.Catalog.ListingCacheTTL)
	audience, err := rule.NewCELAudienceEvaluator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build audience evaluator")
	}
	notifier := cataloginfra.NewNotificationAdapter(publisher, cfg.App.PublicBaseURL)

	workflow := catalogapp.NewWorkflow(stores, products, coupons, cache, notifier, tracer)
	inventory := catalogapp.NewInventory(products, cache, tracer)
	catalog := catalogapp.NewCatalog(stores, products, coupons, cache, tracer)
	couponSvc := catalogapp.NewCoupons(coupons, adapter.NewBuyerDirectory(orders, users), audience, tracer)
	storeAccounts := catalogapp.NewStoreAccounts(stores, notifier, issuer, limiter,
		catalogapp.AdminCredentials{Email: cfg.Auth.AdminEmail, PasswordHash: cfg.Auth.AdminPasswordHash},
		cfg.Auth.ResetTokenTTL, tracer)

	userSvc := accountapp.NewUsers(users, issuer, limiter, tracer)
	book := accountapp.NewAddressBook(tx, users,
		accountinfra.NewGormAddressRepository(db), accountinfra.NewGormPaymentMethodRepository(db), tracer)

	catalogPort := adapter.NewCatalogAdapter(catalog, inventory)
	orderSvc := orderapp.NewOrders(tx, orders, catalogPort, catalogPort, adapter.NewCouponAdapter(couponSvc), book, tracer)

	contacts := supportapp.NewContacts(supportinfra.NewGormContactRepository(db),
		supportinfra.NewNotificationAdapter(publisher), tracer)
	chat := supportapp.NewChat(tx, supportinfra.NewGormConversationRepository(db), supportinfra.NewGormMessageRepository(db),
		supportinfra.NewKafkaChatPublisher(chatWriter), tracer)

	pageDef, pageMax := cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cataloghttp.NewCatalogHandler(cataloghttp.Services{
				Workflow: workflow, Inventory: inventory, Catalog: catalog, Coupons: couponSvc, Accounts: storeAccounts,
			}, pageDef, pageMax, secureCookie).RegisterRoutes(appCtx.Mux)
			accounthttp.NewAccountHandler(userSvc, book, secureCookie).RegisterRoutes(appCtx.Mux)
			orderhttp.NewOrderHandler(orderSvc, pageDef, pageMax).RegisterRoutes(appCtx.Mux)
			supporthttp.NewSupportHandler(contacts, chat, pageDef, pageMax).RegisterRoutes(appCtx.Mux)
		},
		Middleware: func(next http.Handler) http.Handler {
			return session.Middleware(issuer, storeAccounts)(next)
		},
		OnShutdown: func(ctx context.Context) {
			// 先等异步通知写完，再关闭 writer
			workflow.Wait()
			storeAccounts.Wait()
			contacts.Wait()
			chat.Wait()

			if err := notificationWriter.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close notification writer")
			}
			if err := chatWriter.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close chat writer")
			}
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close redis client")
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	})
}
