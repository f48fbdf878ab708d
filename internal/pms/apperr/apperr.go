// Package apperr 定义业务错误类型，由 handler 统一映射为 HTTP 响应
package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidTransitionError 当前状态不允许该操作
type InvalidTransitionError struct {
	Kind    string
	Action  string
	Current string
	Target  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: cannot %s from status %s", e.Kind, e.Action, e.Current)
	}
	return fmt.Sprintf("%s: cannot %s from status %s to %s", e.Kind, e.Action, e.Current, e.Target)
}

// PermissionDeniedError 无权操作
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

// NotFoundError 资源不存在
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ValidationError 参数校验失败，Fields 为字段级明细
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError 版本冲突或记录被锁定
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// Denied 构造 PermissionDeniedError
func Denied(reason string) error {
	return &PermissionDeniedError{Reason: reason}
}

// NotFound 构造 NotFoundError
func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Invalid 构造单字段 ValidationError
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Conflict 构造 ConflictError
func Conflict(reason string) error {
	return &ConflictError{Reason: reason}
}
