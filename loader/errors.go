package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyLoading 在加载进行中再次调用 Load
var ErrAlreadyLoading = errors.New("loader: load already in progress")

// UnknownTypeError 资源类型没有对应的获取策略
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("loader: no strategy for resource type %q", e.Type)
}

// AcquireError 单个资源获取失败
type AcquireError struct {
	Name string
	URL  string
	Err  error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("loader: failed to load resource '%s' (%s): %v", e.Name, e.URL, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// CriticalLoadError 一个或多个关键资源获取失败
//
// Names 与 Errs 一一对应，按入队顺序排列。
type CriticalLoadError struct {
	Names []string
	Errs  []error
}

func (e *CriticalLoadError) Error() string {
	return "loader: critical resources failed to load: " + strings.Join(e.Names, ", ")
}

// Unwrap 支持 errors.Is / errors.As 检查任一失败原因
func (e *CriticalLoadError) Unwrap() []error { return e.Errs }
