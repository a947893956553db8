// Package notify 负责推送通知的扇出：解析接收人设备 Token，分批提交给推送网关。
//
// 通知对业务操作是尽力而为的：任何投递失败只记录日志与指标，绝不向调用方传播。
package notify

import (
	"context"
	"errors"
	"strings"
)

// 通知类型（写入 payload 的 type 字段，客户端据此跳转）
const (
	TypeNewRequest       = "new_request"
	TypeRequestAccepted  = "request_accepted"
	TypeRequestCancelled = "request_cancelled"
)

// ErrDeviceNotRegistered 网关判定设备 Token 已失效
var ErrDeviceNotRegistered = errors.New("设备未注册或 Token 已失效")

// Notification 一次通知意图
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Message 发往单个设备的推送消息
type Message struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

// Ticket 单条消息的投递回执；Err 为 nil 表示网关已受理
type Ticket struct {
	To  string
	Err error
}

// Gateway 推送网关
// 返回 error 表示整批失败（超时、5xx 等，可重试）；逐条失败体现在 Ticket.Err
type Gateway interface {
	Send(ctx context.Context, msgs []Message) ([]Ticket, error)
}

const (
	tokenPrefix = "ExponentPushToken["
	tokenSuffix = "]"
)

// ValidToken 校验 Expo 设备 Token 的格式：ExponentPushToken[xxx]
func ValidToken(token string) bool {
	return len(token) > len(tokenPrefix)+len(tokenSuffix) &&
		strings.HasPrefix(token, tokenPrefix) &&
		strings.HasSuffix(token, tokenSuffix)
}
