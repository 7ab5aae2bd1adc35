// Package validate checks untyped request payloads against declarative
// schemas and reports every violated field at once.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var checker = validator.New(validator.WithRequiredStructEnabled())

// Kind is the JSON type a field must have.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindObjectList
)

// Field declares one payload field. Rules is a validator tag evaluated on the
// typed value once the kind check passed; Messages maps each rule tag to the
// message reported when it fails.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Rules    string
	Items    Schema // element schema for KindObjectList

	RequiredMsg string
	KindMsg     string
	IntegerMsg  string
	Messages    map[string]string
}

// Schema is an ordered list of fields.
type Schema []Field

// FieldError is one violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports all violations found in a payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Values holds normalized field values: string, int64, float64, or
// []Values for object lists. Absent optional fields are not set.
type Values map[string]any

// Validate checks raw against the schema and returns the normalized values,
// or a *ValidationError naming every violated field.
func (s Schema) Validate(raw map[string]any) (Values, error) {
	var violations []FieldError
	values := s.check("", raw, &violations)
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}
	return values, nil
}

func (s Schema) check(prefix string, raw map[string]any, violations *[]FieldError) Values {
	values := make(Values, len(s))
	for _, f := range s {
		path := prefix + f.Name
		fail := func(msg string) {
			*violations = append(*violations, FieldError{Field: path, Message: msg})
		}

		v, ok := raw[f.Name]
		if !ok || v == nil {
			if f.Required {
				fail(f.RequiredMsg)
			}
			continue
		}

		var typed any
		switch f.Kind {
		case KindString:
			str, ok := v.(string)
			if !ok {
				fail(f.KindMsg)
				continue
			}
			typed = str
		case KindNumber:
			n, ok := toFloat(v)
			if !ok {
				fail(f.KindMsg)
				continue
			}
			typed = n
		case KindInteger:
			n, ok := toFloat(v)
			if !ok {
				fail(f.KindMsg)
				continue
			}
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				fail(f.IntegerMsg)
				continue
			}
			typed = n
		case KindObjectList:
			list, ok := v.([]any)
			if !ok {
				fail(f.KindMsg)
				continue
			}
			items := make([]Values, 0, len(list))
			for i, elem := range list {
				obj, ok := elem.(map[string]any)
				if !ok {
					*violations = append(*violations, FieldError{
						Field:   fmt.Sprintf("%s[%d]", path, i),
						Message: MsgPartObject,
					})
					continue
				}
				items = append(items, f.Items.check(fmt.Sprintf("%s[%d].", path, i), obj, violations))
			}
			values[f.Name] = items
			continue
		}

		if f.Rules != "" {
			if msg := f.applyRules(typed); msg != "" {
				fail(msg)
				continue
			}
		}
		if f.Kind == KindInteger {
			// rules bound the range before narrowing
			typed = int64(typed.(float64))
		}
		values[f.Name] = typed
	}
	return values
}

func (f Field) applyRules(v any) string {
	err := checker.Var(v, f.Rules)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := f.Messages[verrs[0].Tag()]; ok {
			return msg
		}
		return fmt.Sprintf("%s failed %q", f.Name, verrs[0].Tag())
	}
	return err.Error()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
