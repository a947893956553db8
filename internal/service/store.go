package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "faculty-sub/backend/pkg/errors"
)

// withTimeout 为单次存储调用设置超时；timeout <= 0 时不限时
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// upstream 将存储层错误包装为 ErrUpstream，保留原始错误（含 context.DeadlineExceeded）
func upstream(err error) error {
	return fmt.Errorf("%w: %w", pkgerrors.ErrUpstream, err)
}

// isNotFound 记录不存在
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

const dateLayout = "2006-01-02"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
