package service

import (
	"errors"
	"fmt"
)

// ErrUserNotFound 用户不存在或列表未公开，原样返回给调用方，不做重试
var ErrUserNotFound = errors.New("用户不存在或列表未公开")

// SchemaConflictError 列表来源的字段与目录字段重名（联结键除外）
// 通常意味着上游返回结构发生了变化，必须中止本次分析
type SchemaConflictError struct {
	Fields []string
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("列表字段与目录字段冲突: %v", e.Fields)
}
