package order

import "fmt"

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// 合法的状态转换；终态（FILLED, CANCELED, REJECTED）不能再转换。
var legalTransitions = map[StateTransition]bool{
	{StatusNew, StatusAck}:      true,
	{StatusNew, StatusPartial}:  true,
	{StatusNew, StatusFilled}:   true,
	{StatusNew, StatusCanceled}: true,
	{StatusNew, StatusRejected}: true,

	{StatusAck, StatusPartial}:  true,
	{StatusAck, StatusFilled}:   true,
	{StatusAck, StatusCanceled}: true,

	{StatusPartial, StatusFilled}:   true,
	{StatusPartial, StatusCanceled}: true,
}

// ValidateTransition 验证状态转换是否合法，相同状态视为幂等。
func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !legalTransitions[StateTransition{From: from, To: to}] {
		return fmt.Errorf("illegal state transition: %s -> %s", from, to)
	}
	return nil
}

// IsFinal 判断是否是终态
func (s Status) IsFinal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected:
		return true
	default:
		return false
	}
}

// IsActive 判断是否是活跃状态（可能产生成交，需要撤单）
func (s Status) IsActive() bool {
	switch s {
	case StatusNew, StatusAck, StatusPartial:
		return true
	default:
		return false
	}
}
