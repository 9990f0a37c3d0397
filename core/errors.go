package core

import (
	"errors"
	"fmt"
)

// ErrConfiguration 配置错误类别，ErrEmptyMountID 与 *MountNotFoundError 都匹配它
var ErrConfiguration = errors.New("core: configuration error")

// ErrEmptyMountID 挂载标识为空（或只有 "#"）
var ErrEmptyMountID = fmt.Errorf("%w: mount id must be provided", ErrConfiguration)

// ErrAlreadyRunning Run 不可重入
var ErrAlreadyRunning = errors.New("core: runtime already running")

// MountNotFoundError 挂载标识无法解析
type MountNotFoundError struct {
	ID string
}

func (e *MountNotFoundError) Error() string {
	return fmt.Sprintf("core: mount '%s' not found", e.ID)
}

// Is 使 errors.Is(err, ErrConfiguration) 成立
func (e *MountNotFoundError) Is(target error) bool {
	return target == ErrConfiguration
}

// PhaseError 初始化阶段的模块钩子失败
type PhaseError struct {
	Phase  Phase
	Module string
	Err    error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("core: %s hook of module '%s' failed: %v", e.Phase, e.Module, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// FrameError 帧循环中的钩子或渲染失败
//
// 渲染失败时 Phase 为 PhaseRender，Module 为空。
type FrameError struct {
	Frame  uint64
	Phase  Phase
	Module string
	Err    error
}

func (e *FrameError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("core: frame %d: %s failed: %v", e.Frame, e.Phase, e.Err)
	}
	return fmt.Sprintf("core: frame %d: %s hook of module '%s' failed: %v", e.Frame, e.Phase, e.Module, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
