package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"

	"faculty-sub/backend/config"
)

const androidChannelID = "substitute-requests"

// ExpoGateway 基于 Expo Push 服务的 Gateway 实现
type ExpoGateway struct {
	client *expo.PushClient
}

// NewExpoGateway 创建 Expo 推送网关，单次 HTTP 调用受 push.timeout 约束
func NewExpoGateway(cfg *config.PushConfig) *ExpoGateway {
	return &ExpoGateway{
		client: expo.NewPushClient(&expo.ClientConfig{
			APIURL:      cfg.APIURL,
			AccessToken: cfg.AccessToken,
			HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		}),
	}
}

// Send 批量提交；每条消息只含一个接收人，因此回执与消息一一对应
func (g *ExpoGateway) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pushMsgs := make([]expo.PushMessage, 0, len(msgs))
	for _, m := range msgs {
		pushMsgs = append(pushMsgs, expo.PushMessage{
			To:        []expo.ExponentPushToken{expo.ExponentPushToken(m.To)},
			Title:     m.Title,
			Body:      m.Body,
			Data:      m.Data,
			Sound:     "default",
			Badge:     1,
			Priority:  expo.HighPriority,
			ChannelID: androidChannelID,
		})
	}

	responses, err := g.client.PublishMultiple(pushMsgs)
	if err != nil {
		return nil, fmt.Errorf("expo 推送请求失败: %w", err)
	}
	if len(responses) != len(msgs) {
		return nil, fmt.Errorf("expo 回执数量不匹配: 期望 %d，实际 %d", len(msgs), len(responses))
	}

	tickets := make([]Ticket, len(msgs))
	for i := range responses {
		tickets[i] = Ticket{To: msgs[i].To, Err: ticketError(&responses[i])}
	}
	return tickets, nil
}

func ticketError(resp *expo.PushResponse) error {
	err := resp.ValidateResponse()
	if err == nil {
		return nil
	}
	var dnr *expo.DeviceNotRegisteredError
	if errors.As(err, &dnr) {
		return ErrDeviceNotRegistered
	}
	return err
}
