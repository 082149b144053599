package book

import (
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// 图书领域错误定义
var (
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "Book not found")

	// ErrTitleDuplicate 书名已存在
	ErrTitleDuplicate = apperrors.New(apperrors.ErrCodeTitleDuplicate, "A book with this title already exists")

	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidPrice, "Price must be greater than 0")

	// ErrInvalidDiscount 折后价必须小于原价
	ErrInvalidDiscount = apperrors.New(apperrors.ErrCodeInvalidDiscountedPrice, "Discounted price must be between 0 and the price")

	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidStock, "Stock cannot be negative")

	// ErrInsufficientStock 确认订单时库存已为0
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "Book is out of stock")
)
