package workflow

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// NoReason 驳回意见为空时的默认文案
const NoReason = "No reason provided"

// Record 审批实体加载结果，Entity 为返回给调用方的完整对象
type Record struct {
	Entity     interface{}
	BranchID   *uint64
	BranchName string
}

// MessageFunc 生成通知文案，comment 已替换为展示用文案
type MessageFunc func(rec Record, comment string) string

// Descriptor 将某类实体的列映射到审批字段约定
//
// 引擎只通过这些列名读写实体，不依赖具体的 Go 类型。
type Descriptor struct {
	// Kind 路由及日志中使用的实体类型标识
	Kind string
	// Object 权限矩阵中的资源名
	Object string
	// ActionSuffix 追加到权限动作名后，如 "-unit-of-measure"
	ActionSuffix string

	Table         string
	StatusColumn  string
	LockColumn    string // 为空表示该轨道不维护锁定标记
	CommentColumn string
	// BranchExpr 解析行所属部门的 SQL 表达式
	BranchExpr  string
	OwnerColumn string

	Machine  *Machine
	Load     func(ctx context.Context, db *gorm.DB, id uint64) (Record, error)
	Messages map[Action]MessageFunc
}

// Permission 权限矩阵中的动作名
func (d *Descriptor) Permission(action Action) string {
	return string(action) + d.ActionSuffix
}

// Catalog 实体类型注册表
type Catalog struct {
	descriptors map[string]*Descriptor
}

// NewCatalog 创建注册表
func NewCatalog() *Catalog {
	return &Catalog{descriptors: make(map[string]*Descriptor)}
}

// Register 注册实体类型，重复注册直接 panic
func (c *Catalog) Register(d *Descriptor) {
	if d.Kind == "" || d.Table == "" || d.StatusColumn == "" || d.Machine == nil || d.Load == nil {
		panic(fmt.Sprintf("workflow: incomplete descriptor %q", d.Kind))
	}
	if _, exists := c.descriptors[d.Kind]; exists {
		panic(fmt.Sprintf("workflow: kind %q registered twice", d.Kind))
	}
	c.descriptors[d.Kind] = d
}

// Get 按类型获取
func (c *Catalog) Get(kind string) (*Descriptor, bool) {
	d, ok := c.descriptors[kind]
	return d, ok
}

// Kinds 已注册的类型，按名称排序
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.descriptors))
	for k := range c.descriptors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DisplayComment 驳回意见为空时使用默认文案，落库和通知共用
func DisplayComment(comment string) string {
	if comment == "" {
		return NoReason
	}
	return comment
}
