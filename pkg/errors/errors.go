// Package errors 定义跨层共享的错误分类。
// Service 层的模块错误通过 %w 包装这些分类，Handler 层据此映射 HTTP 状态码。
package errors

import "errors"

var (
	// ErrNotFound 实体不存在，或调用方无权访问（两者对外不可区分）
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidState 状态流转前置条件不满足
	ErrInvalidState = errors.New("当前状态不允许该操作")
	// ErrValidation 输入格式错误
	ErrValidation = errors.New("参数校验失败")
	// ErrConflict 唯一性冲突
	ErrConflict = errors.New("数据冲突")
	// ErrUnauthenticated 凭证缺失或无效
	ErrUnauthenticated = errors.New("未认证")
	// ErrForbidden 身份与目标资源不匹配
	ErrForbidden = errors.New("无权操作")
	// ErrUpstream 外部依赖（数据库、推送网关）失败
	ErrUpstream = errors.New("上游服务异常")

	// ErrStaleState 条件更新未命中任何行：记录已被其他操作修改
	ErrStaleState = errors.New("数据已被其他操作修改，请刷新后重试")
)

// Error 带分类的业务错误：Error() 返回面向用户的消息，errors.Is 可匹配其分类
type Error struct {
	Kind error
	Msg  string
}

// New 创建归属于 kind 分类的业务错误
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Message 提取面向用户的错误消息；非业务错误返回空串
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
