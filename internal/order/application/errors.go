package application

import (
	"errors"
	"fmt"
)

// ErrTotalMismatch 客户端申报总额与目录权威价计算结果超出容差
var ErrTotalMismatch = errors.New("declared total does not match computed total")

// ErrStockConflict 条件扣减未命中任何行，并发订单已消耗剩余库存。
// 对本次请求是终态，由调用方决定是否重新提交。
var ErrStockConflict = errors.New("stock conflict")

// ValidationError 调用方可修正的入参错误
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ProductNotFoundError 订单引用了不存在的商品
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
