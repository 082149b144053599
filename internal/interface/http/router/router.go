package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookstore-orders/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
	Promo   *handler.PromoHandler
	Book    *handler.BookHandler
	User    *handler.UserHandler
}

// New 创建Gin引擎并注册路由
// 中间件顺序: Recovery → Tracing → RequestLogger → Metrics
func New(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Tracing(), middleware.RequestLogger())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := []gin.HandlerFunc{auth.RequireAuth(), auth.RequireAdmin()}

	orders := r.Group("/orders")
	{
		orders.POST("/checkout", limiter.General(), auth.OptionalAuth(), h.Order.Checkout)
		orders.POST("/confirm/:token", limiter.Strict(), h.Order.Confirm)
		orders.GET("/all", append(admin, h.Order.List)...)
		orders.PUT("/:id", append(admin, h.Order.Update)...)
		orders.DELETE("/:id", append(admin, h.Order.Delete)...)
	}

	payments := r.Group("/payments")
	{
		payments.GET("/pay/:orderId", limiter.General(), h.Payment.PaymentForm)
		// 网关从少量固定IP回调,按IP限流会误伤正常回调;伪造请求在验签时即被拒绝
		payments.POST("/handle-webhook", h.Payment.Webhook)
	}

	promos := r.Group("/promo-codes")
	{
		promos.POST("/check-promo-code", limiter.Strict(), h.Promo.Check)
		promos.POST("/create", append(admin, h.Promo.Create)...)
		promos.GET("/all", append(admin, h.Promo.List)...)
		promos.PUT("/:id", append(admin, h.Promo.Update)...)
		promos.DELETE("/:id", append(admin, h.Promo.Delete)...)
	}

	books := r.Group("/books")
	{
		books.GET("", limiter.General(), h.Book.ListBooks)
		books.GET("/:id", limiter.General(), h.Book.GetBook)
		books.POST("", append(admin, h.Book.PublishBook)...)
	}

	users := r.Group("/users")
	{
		users.POST("/register", limiter.Strict(), h.User.Register)
		users.POST("/login", limiter.Strict(), h.User.Login)
		users.POST("/logout", auth.RequireAuth(), h.User.Logout)
	}

	return r
}
