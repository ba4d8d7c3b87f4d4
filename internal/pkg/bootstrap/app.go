// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/pkg/nacos"
	"bazaar/internal/pkg/tracing"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client // ENABLE_NACOS=false 时为 nil
	Config *Config
}

// AppInfo 包含了启动一个服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	// 为 0 时使用 app.port
	Port int
	// 每个服务注册自己的 HTTP 路由
	RegisterHandlers func(appCtx AppCtx)
	Middleware       func(http.Handler) http.Handler
	// 在 HTTP server 关闭后调用，用于关闭 kafka / db 等资源
	OnShutdown func(ctx context.Context)
}

// StartService 封装了所有服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	logger.Init(info.ServiceName, cfg.App.LogLevel, cfg.App.Env)
	log := logger.Ctx(context.Background())

	port := info.Port
	if port == 0 {
		port = cfg.App.Port
	}

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName:    info.ServiceName,
		Environment:    cfg.App.Env,
		JaegerEndpoint: cfg.Infra.Jaeger.Endpoint,
		SampleRatio:    cfg.Infra.Jaeger.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 服务注册（可选）
	var namingClient *nacos.Client
	var ip string
	if cfg.App.EnableNacos {
		namingClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		ip, err = GetOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 路由
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient, Config: cfg})
	}

	// InstrumentHandler 必须直接包住 mux 才能读到 r.Pattern
	handler := metrics.InstrumentHandler(mux)
	if info.Middleware != nil {
		handler = info.Middleware(handler)
	}
	handler = extractTraceContext(handler)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 4. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 按顺序清理 (后进先出)
	// a. 从 Nacos 注销，停止接收新流量
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, port); err != nil {
			log.Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}

	// b. 关闭 HTTP 服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down http server")
	}

	// c. 服务自己的资源
	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	// d. 最后关闭 Tracer Provider，确保缓冲的 trace 都被发送出去
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// extractTraceContext 从请求头还原上游的 trace context 和 baggage
func extractTraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
