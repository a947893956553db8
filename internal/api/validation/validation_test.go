package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	Email string `validate:"required,email,faculty_email"`
	Time  string `validate:"required,clock_time"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := RegisterOn(v, "@kiit.ac.in"); err != nil {
		t.Fatalf("注册校验规则失败: %v", err)
	}
	return v
}

func TestFacultyEmail(t *testing.T) {
	v := newValidator(t)

	cases := map[string]bool{
		"prof@kiit.ac.in":  true,
		"Prof@KIIT.AC.IN":  true,
		"prof@gmail.com":   false,
		"prof@kiit.ac.in.": false,
	}
	for email, want := range cases {
		err := v.Struct(sample{Email: email, Time: "10:00"})
		if (err == nil) != want {
			t.Errorf("%s: 期望通过=%v，实际错误 %v", email, want, err)
		}
	}
}

func TestClockTime(t *testing.T) {
	v := newValidator(t)

	cases := map[string]bool{
		"14:30":    true,
		"9:05":     true,
		"2:30 PM":  true,
		"14:30:00": true,
		"25:00":    false,
		"noon":     false,
	}
	for tm, want := range cases {
		err := v.Struct(sample{Email: "a@kiit.ac.in", Time: tm})
		if (err == nil) != want {
			t.Errorf("%s: 期望通过=%v，实际错误 %v", tm, want, err)
		}
	}
}

func TestRegister_GinEngine(t *testing.T) {
	if err := Register("@kiit.ac.in"); err != nil {
		t.Fatalf("注册到 gin 引擎失败: %v", err)
	}
}
