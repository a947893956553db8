// Package validation 向 gin 的 validator 引擎注册业务校验规则
package validation

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"faculty-sub/backend/internal/model"
)

// Register 注册自定义规则：
//
//	faculty_email  邮箱以 emailDomain 结尾（不区分大小写）
//	clock_time     可被解析为上课时间，如 14:30 / 2:30 PM
func Register(emailDomain string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	return RegisterOn(v, emailDomain)
}

// RegisterOn 在指定 validator 实例上注册规则
func RegisterOn(v *validator.Validate, emailDomain string) error {
	domain := strings.ToLower(emailDomain)
	if err := v.RegisterValidation("faculty_email", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), domain)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("clock_time", func(fl validator.FieldLevel) bool {
		_, err := model.NormalizeClockTime(fl.Field().String())
		return err == nil
	})
}
