package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed 所有 ValidationError 都包装此错误
var ErrValidationFailed = errors.New("validation failed")

// Form 向导表单的原始取值，以字段名为键
type Form map[string]string

// Value 返回去除首尾空白后的值
func (f Form) Value(name string) string {
	return strings.TrimSpace(f[name])
}

// Bool 复选框是否选中
func (f Form) Bool(name string) bool {
	switch strings.ToLower(f.Value(name)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func (f Form) Merge(other Form) {
	for k, v := range other {
		f[k] = v
	}
}

// Scoped 只保留 step 步骤中声明的字段
func (f Form) Scoped(def *Definition, step Step) Form {
	sd, ok := def.step(step)
	out := Form{}
	if !ok {
		return out
	}
	for _, field := range sd.Fields {
		if v, ok := f[field.Name]; ok {
			out[field.Name] = v
		}
	}
	return out
}

// FieldError 出错的字段
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// ValidationError 步骤校验失败
type ValidationError struct {
	Step   Step
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("step %d: %v: %s", e.Step, ErrValidationFailed, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Field 步骤中的一个表单控件
type Field struct {
	Name     string
	Label    string
	Required bool
	// When 不为空时，只有返回 true 的表单才要求必填
	When func(Form) bool
}

func (f Field) required(form Form) bool {
	if !f.Required {
		return false
	}
	return f.When == nil || f.When(form)
}

// Validate 返回步骤中不合格的字段：必填字段去空白后不能为空，且步骤自带的检查通过
func Validate(def *Definition, step Step, form Form) []FieldError {
	sd, ok := def.step(step)
	if !ok {
		return nil
	}

	var errs []FieldError
	for _, field := range sd.Fields {
		if field.required(form) && form.Value(field.Name) == "" {
			errs = append(errs, FieldError{Field: field.Name, Message: "required"})
		}
	}
	if sd.Check != nil {
		errs = append(errs, sd.Check(form)...)
	}
	return errs
}
