// internal/service/inventory/domain/status.go
package domain

// Status 定义了预约的生命周期状态
type Status string

const (
	StatusActive    Status = "ACTIVE"    // 占用库存中，等待取消/确认/过期
	StatusCancelled Status = "CANCELLED" // 用户主动取消，库存已归还
	StatusExpired   Status = "EXPIRED"   // 扫描器判定超时，库存已归还
	StatusConfirmed Status = "CONFIRMED" // 结算确认，库存转为已售出
)

// IsTerminal 终态不允许再发生任何状态流转。
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired || s == StatusConfirmed
}
