package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	cartapp "github.com/omnisales/omnisales/internal/cart/application"
	cartdomain "github.com/omnisales/omnisales/internal/cart/domain"
	cartmysql "github.com/omnisales/omnisales/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/omnisales/omnisales/internal/cart/interfaces/http"
	catalogapp "github.com/omnisales/omnisales/internal/catalog/application"
	catalogdomain "github.com/omnisales/omnisales/internal/catalog/domain"
	catalogmysql "github.com/omnisales/omnisales/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/omnisales/omnisales/internal/catalog/interfaces/http"
	"github.com/omnisales/omnisales/internal/llm"
	loyaltyapp "github.com/omnisales/omnisales/internal/loyalty/application"
	loyaltydomain "github.com/omnisales/omnisales/internal/loyalty/domain"
	loyaltymysql "github.com/omnisales/omnisales/internal/loyalty/infrastructure/persistence/mysql"
	orderapp "github.com/omnisales/omnisales/internal/order/application"
	orderdomain "github.com/omnisales/omnisales/internal/order/domain"
	ordermysql "github.com/omnisales/omnisales/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/omnisales/omnisales/internal/order/interfaces/http"
	"github.com/omnisales/omnisales/internal/orchestrator"
	orchestratorhttp "github.com/omnisales/omnisales/internal/orchestrator/interfaces/http"
	"github.com/omnisales/omnisales/internal/pos"
	sessionapp "github.com/omnisales/omnisales/internal/session/application"
	sessiondomain "github.com/omnisales/omnisales/internal/session/domain"
	sessionmysql "github.com/omnisales/omnisales/internal/session/infrastructure/persistence/mysql"
	supportapp "github.com/omnisales/omnisales/internal/support/application"
	supportdomain "github.com/omnisales/omnisales/internal/support/domain"
	supportmysql "github.com/omnisales/omnisales/internal/support/infrastructure/persistence/mysql"
	userdomain "github.com/omnisales/omnisales/internal/user/domain"
	usermysql "github.com/omnisales/omnisales/internal/user/infrastructure/persistence/mysql"
	"github.com/omnisales/omnisales/pkg/middleware"
	"github.com/omnisales/omnisales/pkg/mq"
	"github.com/omnisales/omnisales/pkg/ratelimit"
)

// eventPublisher 各模块事件发布接口的公共形态
type eventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/omnisales/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}

	// 2. Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Database
	dsn := viper.GetString("database.source")
	db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	if err := db.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.Cart{}, &cartdomain.CartItem{},
		&orderdomain.Order{}, &orderdomain.OrderItem{},
		&loyaltydomain.LoyaltyAccount{}, &loyaltydomain.Offer{},
		&supportdomain.ReturnRequest{}, &supportdomain.Refund{},
		&supportdomain.Ticket{}, &supportdomain.ScheduledCall{},
		&sessiondomain.Session{}, &sessiondomain.Message{},
		&userdomain.UserProfile{},
	); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Messaging
	var publisher eventPublisher = mq.NopPublisher{}
	var producer *mq.KafkaProducer
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      brokers,
			MaxRetries:   viper.GetInt("kafka.max_retries"),
			RetryBackoff: viper.GetInt("kafka.retry_backoff_ms"),
		})
		if err != nil {
			panic(fmt.Sprintf("create kafka producer failed: %v", err))
		}
		publisher = producer
	}

	// 5. Repositories
	productRepo := catalogmysql.NewProductRepository(db)
	cartRepo := cartmysql.NewCartRepository(db)
	orderRepo := ordermysql.NewOrderRepository(db)
	loyaltyRepo := loyaltymysql.NewLoyaltyRepository(db)
	supportRepo := supportmysql.NewSupportRepository(db)
	sessionRepo := sessionmysql.NewSessionRepository(db)
	userRepo := usermysql.NewUserRepository(db)

	// 6. Application services
	catalogSvc := catalogapp.NewCatalogService(productRepo)
	cartSvc := cartapp.NewCartService(cartRepo, publisher)
	checkoutSvc := orderapp.NewCheckoutService(orderRepo, productRepo, publisher)
	orderQuerySvc := orderapp.NewOrderQueryService(orderRepo)
	loyaltySvc := loyaltyapp.NewLoyaltyService(loyaltyRepo, publisher)
	supportSvc := supportapp.NewSupportService(supportRepo, orderRepo, userRepo)
	sessionSvc := sessionapp.NewSessionService(sessionRepo)

	// 7. Generation chain: OpenRouter 兼容端点优先，本地 Ollama 兜底
	var providers []llm.Generator
	if apiKey := viper.GetString("llm.openrouter.api_key"); apiKey != "" {
		providers = append(providers, llm.NewOpenRouterProvider(
			apiKey,
			viper.GetString("llm.openrouter.base_url"),
			viper.GetString("llm.openrouter.model"),
			viper.GetDuration("llm.openrouter.timeout"),
		))
	}
	if ollamaURL := viper.GetString("llm.ollama.base_url"); ollamaURL != "" {
		providers = append(providers, llm.NewOllamaProvider(
			ollamaURL,
			viper.GetString("llm.ollama.model"),
			viper.GetDuration("llm.ollama.timeout"),
		))
	}
	generator := llm.NewFallbackChain(providers...)

	// 8. Orchestrator
	posClient := pos.NewClient(viper.GetString("pos.base_url"), viper.GetString("pos.api_key"))
	contextBuilder := orchestrator.NewContextBuilder(sessionRepo, userRepo, cartSvc)
	router := orchestrator.NewRouter(
		catalogSvc, cartSvc, orderQuerySvc, loyaltySvc, supportSvc,
		posClient, userRepo, contextBuilder, generator,
	)

	// 9. HTTP
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.GinRecoveryMiddleware())
	engine.Use(middleware.GinLoggingMiddleware())
	engine.Use(middleware.GinCORSMiddleware())

	rateCfg := middleware.RateLimitConfig{
		Enabled: viper.GetBool("ratelimit.enabled"),
		QPS:     viper.GetInt("ratelimit.qps"),
		Burst:   viper.GetInt("ratelimit.burst"),
	}
	if rateCfg.Enabled {
		var limiter ratelimit.RateLimiter
		if redisAddr := viper.GetString("redis.addr"); redisAddr != "" {
			rdb := goredis.NewClient(&goredis.Options{
				Addr:     redisAddr,
				Password: viper.GetString("redis.password"),
				DB:       viper.GetInt("redis.db"),
			})
			limiter = ratelimit.NewRedisRateLimiter(rdb)
		} else {
			limiter = ratelimit.NewLocalRateLimiter()
		}
		engine.Use(middleware.RateLimitMiddleware(limiter, rateCfg))
	}

	root := engine.Group("")
	orchestratorhttp.NewChatHandler(router, sessionSvc).RegisterRoutes(root)
	cataloghttp.NewCatalogHandler(catalogSvc).RegisterRoutes(root)
	carthttp.NewCartHandler(cartSvc).RegisterRoutes(root)
	orderhttp.NewOrderHandler(checkoutSvc, orderQuerySvc).RegisterRoutes(root)

	// 10. Start with graceful shutdown
	g, ctx := errgroup.WithContext(context.Background())

	addr := ":" + viper.GetString("server.http_port")
	server := &http.Server{Addr: addr, Handler: engine}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if producer != nil {
			if err := producer.Close(); err != nil {
				slog.Error("failed to close kafka producer", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}
