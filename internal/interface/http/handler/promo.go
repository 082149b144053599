package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apppromo "github.com/xiebiao/bookstore-orders/internal/application/promo"
	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

const messagePromoDeleted = "Promo code has been deleted."

type promoChecker interface {
	Execute(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error)
}

type promoManager interface {
	Create(ctx context.Context, req apppromo.CreatePromoCodeRequest) (*apppromo.PromoCodeItem, error)
	Update(ctx context.Context, id uint, patch promo.Patch) (*apppromo.PromoCodeItem, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter promo.Filter) ([]*apppromo.PromoCodeItem, error)
}

// PromoHandler 优惠码试算与管理
type PromoHandler struct {
	check  promoChecker
	manage promoManager
}

func NewPromoHandler(check *apppromo.CheckPromoCodeUseCase, manage *apppromo.ManagePromoCodesUseCase) *PromoHandler {
	return &PromoHandler{check: check, manage: manage}
}

// Check 计算使用优惠码后的金额
// @Summary      优惠码试算
// @Tags         优惠码
// @Accept       json
// @Produce      json
// @Param        request body dto.CheckPromoCodeRequest true "金额与优惠码"
// @Success      200 {object} response.Response{data=dto.CheckPromoCodeResponse}
// @Failure      400 {object} response.Response "已过期或未达到最低金额"
// @Failure      404 {object} response.Response "优惠码不存在或未启用"
// @Router       /promo-codes/check-promo-code [post]
func (h *PromoHandler) Check(c *gin.Context) {
	var req dto.CheckPromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	total, err := h.check.Execute(c.Request.Context(), req.Code, *req.TotalSum)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CheckPromoCodeResponse{TotalSum: total.Round(2)})
}

// Create 创建优惠码
// @Summary      创建优惠码
// @Tags         优惠码
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreatePromoCodeRequest true "优惠码"
// @Success      201 {object} response.Response{data=apppromo.PromoCodeItem}
// @Failure      409 {object} response.Response "优惠码已存在"
// @Router       /promo-codes/create [post]
func (h *PromoHandler) Create(c *gin.Context) {
	var req dto.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	item, err := h.manage.Create(c.Request.Context(), apppromo.CreatePromoCodeRequest{
		Code:            req.Code,
		DiscountPercent: *req.DiscountPercent,
		MaxDiscount:     dto.NullDecimal(req.MaxDiscount),
		MinOrderAmount:  dto.NullDecimal(req.MinOrderAmount),
		ExpirationDate:  req.ExpirationDate,
		IsActive:        req.IsActive,
		CreatedBy:       middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update 合并修改优惠码
// @Summary      修改优惠码
// @Tags         优惠码
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "优惠码ID"
// @Param        request body dto.UpdatePromoCodeRequest true "修改字段"
// @Success      200 {object} response.Response{data=apppromo.PromoCodeItem}
// @Failure      404 {object} response.Response "优惠码不存在"
// @Router       /promo-codes/{id} [put]
func (h *PromoHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	item, err := h.manage.Update(c.Request.Context(), id, req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Delete 硬删除优惠码
// @Summary      删除优惠码
// @Tags         优惠码
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "优惠码ID"
// @Success      200 {object} response.Response
// @Router       /promo-codes/{id} [delete]
func (h *PromoHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.manage.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, messagePromoDeleted, nil)
}

// List 优惠码列表
// @Summary      优惠码列表
// @Tags         优惠码
// @Produce      json
// @Security     BearerAuth
// @Param        discountPercent query int false "折扣百分比"
// @Param        isActive query bool false "是否启用"
// @Param        expirationDate query string false "过期日期 YYYY-MM-DD"
// @Success      200 {object} response.Response{data=[]apppromo.PromoCodeItem}
// @Router       /promo-codes/all [get]
func (h *PromoHandler) List(c *gin.Context) {
	var req dto.ListPromoCodesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	items, err := h.manage.List(c.Request.Context(), req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// pathID 解析:id路径参数,失败时已写入响应
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithMessage("id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}
