package form

import (
	"fmt"
	"math"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// Validator names reported by (*Control).Errors.
const (
	ValidatorRequired  = "required"
	ValidatorMinLength = "minLength"
	ValidatorMaxLength = "maxLength"
	ValidatorPattern   = "pattern"
	ValidatorMin       = "min"
	ValidatorMax       = "max"
	ValidatorEmail     = "email"
)

// ValidatorSet declares the validators of one field. The zero value accepts
// everything.
type ValidatorSet struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Email     bool     `json:"email,omitempty" yaml:"email,omitempty"`
}

// validator checks a non-empty value. Empty values are only judged by
// the required validator.
type validator struct {
	name  string
	check func(value any) bool
}

// compile turns the declarative set into checks. Required is handled by the
// control itself because relations toggle it at runtime.
func (vs ValidatorSet) compile() ([]validator, error) {
	var out []validator

	if vs.MinLength != nil {
		n := *vs.MinLength
		out = append(out, validator{ValidatorMinLength, func(v any) bool {
			l, ok := valueLength(v)
			return !ok || l >= n
		}})
	}
	if vs.MaxLength != nil {
		n := *vs.MaxLength
		out = append(out, validator{ValidatorMaxLength, func(v any) bool {
			l, ok := valueLength(v)
			return !ok || l <= n
		}})
	}
	if vs.Pattern != "" {
		re, err := regexp.Compile("^(?:" + vs.Pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", vs.Pattern, err)
		}
		out = append(out, validator{ValidatorPattern, func(v any) bool {
			return re.MatchString(fmt.Sprint(v))
		}})
	}
	if vs.Min != nil {
		lo := *vs.Min
		out = append(out, validator{ValidatorMin, func(v any) bool {
			f, ok := numeric(v)
			return !ok || f >= lo
		}})
	}
	if vs.Max != nil {
		hi := *vs.Max
		out = append(out, validator{ValidatorMax, func(v any) bool {
			f, ok := numeric(v)
			return !ok || f <= hi
		}})
	}
	if vs.Email {
		out = append(out, validator{ValidatorEmail, func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			addr, err := mail.ParseAddress(s)
			return err == nil && addr.Address == s
		}})
	}

	return out, nil
}

// isEmpty reports whether value counts as missing for the required validator.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// valueLength returns the rune count of strings and the length of sequences.
func valueLength(value any) (int, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// numeric converts numbers and numeric strings for min/max.
func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil && !math.IsNaN(f)
	case bool:
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
