package agent

import "errors"

var (
	// ErrAgentNotFound Agent 未找到
	ErrAgentNotFound = errors.New("agent not found")

	// ErrInvalidAgent Agent 定义无效
	ErrInvalidAgent = errors.New("invalid agent definition")
)
