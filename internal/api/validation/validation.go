package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"schoolhub/timetable/pkg/timeutil"
)

var registerOnce sync.Once

// Register 在 gin 的校验引擎上注册自定义标签：
//   - clock   值可规范化为 "HH:MM"（接受 "8:05"、"08:05"、"8 am"）
//   - weekday 值为星期名称（大小写不敏感）
//
// 同时让校验错误中的字段名使用 json/form 标签名
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}

	var err error
	registerOnce.Do(func() {
		v.RegisterTagNameFunc(fieldName)
		if err = v.RegisterValidation("clock", validateClock); err != nil {
			return
		}
		err = v.RegisterValidation("weekday", validateWeekday)
	})
	return err
}

func validateClock(fl validator.FieldLevel) bool {
	return timeutil.Normalize(fl.Field().String()) != ""
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := timeutil.DayIndex(fl.Field().String())
	return ok
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Describe 将绑定错误转为面向客户端的简短描述
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "请求格式无效"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", fe.Field())
	case "clock":
		return fmt.Sprintf("%s 不是有效的时间", fe.Field())
	case "weekday":
		return fmt.Sprintf("%s 不是有效的星期", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s 必须为 %s 之一", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s 不是有效的 ID", fe.Field())
	default:
		return fmt.Sprintf("%s 校验失败 (%s)", fe.Field(), fe.Tag())
	}
}
