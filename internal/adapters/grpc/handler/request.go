package handler

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// requestError はリクエストの形式不正を表します。
type requestError struct {
	field  string
	reason string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.reason)
}

type request struct {
	fields map[string]*structpb.Value
}

func newRequest(in *structpb.Struct) request {
	if in == nil {
		return request{}
	}
	return request{fields: in.GetFields()}
}

// optionalString は文字列フィールドを返します。未指定または null の場合は nil です。
func (r request) optionalString(name string) (*string, error) {
	v, ok := r.fields[name]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		value := strings.TrimSpace(kind.StringValue)
		if value == "" {
			return nil, nil
		}
		return &value, nil
	default:
		return nil, &requestError{field: name, reason: "must be a string"}
	}
}

func (r request) requiredString(name string) (string, error) {
	value, err := r.optionalString(name)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", &requestError{field: name, reason: "is required"}
	}
	return *value, nil
}

// decimalString は文字列または数値で指定された小数を文字列で返します。
func (r request) decimalString(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", &requestError{field: name, reason: "is required"}
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		value := strings.TrimSpace(kind.StringValue)
		if value == "" {
			return "", &requestError{field: name, reason: "is required"}
		}
		return value, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	default:
		return "", &requestError{field: name, reason: "must be a string or number"}
	}
}
