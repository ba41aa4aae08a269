// internal/service/inventory/domain/errors.go
package domain

import "errors"

// 领域错误哨兵值。接口层通过 errors.Is 将它们映射为 HTTP 状态码。
var (
	// ErrItemNotFound 商品不存在
	ErrItemNotFound = errors.New("item not found")
	// ErrReservationNotFound 预约记录不存在
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInvalidQuantity 数量必须为正数
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrCustomerRequired 客户标识不能为空
	ErrCustomerRequired = errors.New("customer id is required")
	// ErrNameRequired 商品名称不能为空
	ErrNameRequired = errors.New("item name is required")
	// ErrSKURequired SKU 不能为空
	ErrSKURequired = errors.New("item sku is required")
	// ErrInvalidPrice 价格必须为正数
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrPolicyRejected 预约请求被准入规则拒绝
	ErrPolicyRejected = errors.New("reservation rejected by policy")

	// ErrDuplicateSKU 已存在相同 SKU 的商品
	ErrDuplicateSKU = errors.New("item with the same sku already exists")
	// ErrDuplicateName 已存在相同名称的商品
	ErrDuplicateName = errors.New("item with the same name already exists")

	// ErrInsufficientStock 可用库存不足
	ErrInsufficientStock = errors.New("insufficient available quantity")
	// ErrItemInactive 商品已下架，不可售
	ErrItemInactive = errors.New("item is not active")
	// ErrReservationNotActive 预约不在 ACTIVE 状态，无法流转
	ErrReservationNotActive = errors.New("reservation is not active")

	// ErrLockTimeout 行锁等待超时，调用方可安全重试整个操作
	ErrLockTimeout = errors.New("timed out waiting for item lock")

	// ErrInconsistentState 账目不一致（reserved 将变为负数），
	// 属于内部不变量被破坏，记录后人工介入，绝不静默修正。
	ErrInconsistentState = errors.New("inconsistent stock bookkeeping state")
	// ErrVersionConflict 提交时版本号与加锁读取时不一致。
	// 行锁是主要的正确性机制，版本号只是兜底防线；命中即说明有绕过锁的写入。
	ErrVersionConflict = errors.New("item version changed since lock acquisition")
)
