package main

import (
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/bookstore-orders/internal/application/order"
	apppayment "github.com/xiebiao/bookstore-orders/internal/application/payment"
	appuser "github.com/xiebiao/bookstore-orders/internal/application/user"
	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/payment"
	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/notify"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-orders/internal/interface/worker"
	"github.com/xiebiao/bookstore-orders/pkg/circuitbreaker"
	"github.com/xiebiao/bookstore-orders/pkg/jwt"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/mq"
)

// App InitializeApp的产出
type App struct {
	Engine *gin.Engine
	Reaper *worker.PendingOrderReaper
}

func newApp(engine *gin.Engine, reaper *worker.PendingOrderReaper) *App {
	return &App{Engine: engine, Reaper: reaper}
}

// provideDB 创建MySQL连接,cleanup关闭连接池
func provideDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideUserService(repo user.Repository, cfg *config.Config) user.Service {
	return user.NewService(repo, user.Options{AdminEmails: cfg.Auth.AdminEmails, BcryptCost: cfg.Auth.BcryptCost})
}

// providePromoRepository MySQL仓储外包一层Redis缓存
func providePromoRepository(db *gorm.DB, client *goredis.Client, cfg *config.Config) promo.Repository {
	return redis.NewCachedPromoRepository(mysql.NewPromoRepository(db), client, cfg.Cache.PromoCodeTTL)
}

func providePromoService(repo promo.Repository) promo.Service {
	return promo.NewService(repo, time.Now)
}

func provideMerchant(cfg *config.Config) payment.Merchant {
	return payment.Merchant{
		PublicKey:   cfg.Liqpay.PublicKey,
		PrivateKey:  cfg.Liqpay.PrivateKey,
		Currency:    cfg.Liqpay.Currency,
		ServerURL:   cfg.Liqpay.ServerURL,
		ResultURL:   cfg.Liqpay.ResultURL,
		CheckoutURL: cfg.Liqpay.CheckoutURL,
		Sandbox:     cfg.Liqpay.Sandbox,
	}
}

// provideNotificationSink 启用RabbitMQ时经熔断器发布,否则只写日志
func provideNotificationSink(cfg *config.Config) (order.NotificationSink, func(), error) {
	if !cfg.RabbitMQ.Enabled {
		logger.L().Info("rabbitmq disabled, staff notifications go to the log")
		return notify.NewLogSink(), func() {}, nil
	}

	pub, err := mq.NewPublisher(mq.Config{
		URL:          cfg.RabbitMQ.URL,
		Exchange:     cfg.RabbitMQ.Exchange,
		ExchangeType: cfg.RabbitMQ.ExchangeType,
	})
	if err != nil {
		return nil, nil, err
	}
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "rabbitmq-publisher",
		OpenTimeout: 30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.L().Warn("circuit breaker state changed",
				zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return notify.NewRabbitSink(pub, breaker), func() { _ = pub.Close() }, nil
}

func provideCreateOrderUseCase(
	orders order.Repository,
	books book.Repository,
	users user.Repository,
	promos promo.Service,
	sink order.NotificationSink,
	cfg *config.Config,
) *apporder.CreateOrderUseCase {
	return apporder.NewCreateOrderUseCase(orders, books, users, promos, sink, cfg.Storefront.ClientURL)
}

func provideDeliveryGuard(client *goredis.Client, cfg *config.Config) *redis.DeliveryGuard {
	return redis.NewDeliveryGuard(client, cfg.Cache.WebhookDeliveryTTL)
}

func provideWebhookUseCase(merchant payment.Merchant, confirm *apporder.ConfirmOrderUseCase, guard *redis.DeliveryGuard) *apppayment.HandleWebhookUseCase {
	return apppayment.NewHandleWebhookUseCase(merchant, confirm, guard)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(users user.Service, jwtManager *jwt.Manager, sessions *redis.SessionStore, cfg *config.Config) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(users, jwtManager, sessions, cfg.JWT.RefreshTokenExpire)
}

func provideLogoutUseCase(sessions *redis.SessionStore) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(sessions)
}

func provideReapPendingUseCase(orders order.Repository, cfg *config.Config) *apporder.ReapPendingUseCase {
	return apporder.NewReapPendingUseCase(orders, cfg.Housekeeping.PendingOrderTTL)
}

func providePendingOrderReaper(reap *apporder.ReapPendingUseCase, locker *redis.Locker, cfg *config.Config) *worker.PendingOrderReaper {
	return worker.NewPendingOrderReaper(reap, locker, cfg.Housekeeping.Interval, cfg.Housekeeping.LockTTL)
}
