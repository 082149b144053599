//go:build wireinject
// +build wireinject

// wire.go 依赖注入声明,修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go
package main

import (
	"github.com/google/wire"

	appbook "github.com/xiebiao/bookstore-orders/internal/application/book"
	apporder "github.com/xiebiao/bookstore-orders/internal/application/order"
	apppayment "github.com/xiebiao/bookstore-orders/internal/application/payment"
	apppromo "github.com/xiebiao/bookstore-orders/internal/application/promo"
	appuser "github.com/xiebiao/bookstore-orders/internal/application/user"
	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/router"
)

// infrastructureSet 数据库、缓存、消息
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideNotificationSink,
	provideMerchant,
	provideJWTManager,
	redis.NewSessionStore,
	redis.NewLocker,
	provideDeliveryGuard,
)

// repositorySet 仓储与事务
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewOrderRepository,
	mysql.NewStockLedger,
	mysql.NewTxManager,
	providePromoRepository,
	wire.Bind(new(apporder.TxManager), new(*mysql.TxManager)),
)

var domainSet = wire.NewSet(
	provideUserService,
	book.NewService,
	providePromoService,
)

var applicationSet = wire.NewSet(
	provideCreateOrderUseCase,
	apporder.NewConfirmOrderUseCase,
	apporder.NewUpdateOrderUseCase,
	apporder.NewDeleteOrderUseCase,
	apporder.NewListOrdersUseCase,
	provideReapPendingUseCase,
	apppayment.NewPaymentFormUseCase,
	provideWebhookUseCase,
	apppromo.NewCheckPromoCodeUseCase,
	apppromo.NewManagePromoCodesUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewListBooksUseCase,
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	provideLogoutUseCase,
)

var interfaceSet = wire.NewSet(
	handler.NewOrderHandler,
	handler.NewPaymentHandler,
	handler.NewPromoHandler,
	handler.NewBookHandler,
	handler.NewUserHandler,
	wire.Struct(new(router.Handlers), "*"),
	middleware.NewAuthMiddleware,
	wire.Bind(new(middleware.RevocationChecker), new(*redis.SessionStore)),
	middleware.NewRateLimiter,
	router.New,
	providePendingOrderReaper,
	newApp,
)

// InitializeApp 组装HTTP服务与后台清理任务
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
