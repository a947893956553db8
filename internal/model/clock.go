package model

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidClockTime 无法识别的上课时间
var ErrInvalidClockTime = errors.New("无法识别的时间格式")

// clockLayouts 可接受的时间输入格式
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// NormalizeClockTime 将 "2:30 PM"、"9:05"、"14:30:00" 等输入统一为零填充的 24 小时制 "HH:MM"，
// 使按字符串排序与按时间排序一致
func NormalizeClockTime(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return "", ErrInvalidClockTime
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", ErrInvalidClockTime
}
