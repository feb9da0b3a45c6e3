package agent

import "fmt"

// Status 定义 Agent 的运行状态
type Status string

const (
	StatusActive   Status = "active"   // Accepting work
	StatusInactive Status = "inactive" // Taken out of rotation by an operator
	StatusBusy     Status = "busy"     // Marked as saturated
)

// validStatuses 按展示顺序列出合法状态
var validStatuses = []Status{StatusActive, StatusInactive, StatusBusy}

// ValidStatuses returns the accepted status values.
func ValidStatuses() []Status {
	return append([]Status(nil), validStatuses...)
}

// ParseStatus 校验并转换状态字符串
func ParseStatus(s string) (Status, error) {
	for _, v := range validStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", ErrInvalidStatus{Value: s}
}

// Kind 区分主 Agent 与子 Agent
type Kind string

const (
	KindMain Kind = "main"
	KindSub  Kind = "sub"
)

// KindDescription returns the human readable description of k.
func KindDescription(k Kind) string {
	switch k {
	case KindMain:
		return "Main orchestrator agent"
	case KindSub:
		return "Specialized sub-agent"
	default:
		return ""
	}
}

// ErrInvalidStatus 非法状态错误
type ErrInvalidStatus struct {
	Value string
}

func (e ErrInvalidStatus) Error() string {
	return fmt.Sprintf("invalid status %q. Valid statuses: %v", e.Value, validStatuses)
}
