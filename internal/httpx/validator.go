package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// RegisterValidation adds a custom tag to the shared request validator.
// Call it from package init only.
func RegisterValidation(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("httpx: register validation %q: %v", tag, err))
	}
}

// MessageProvider lets a request type supply its own wording, keyed by
// "<json field>.<tag>".
type MessageProvider interface {
	ValidationMessages() map[string]string
}

// ValidateStruct returns field name to message for every failed rule, or nil.
func ValidateStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	var messages map[string]string
	if mp, ok := s.(MessageProvider); ok {
		messages = mp.ValidationMessages()
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			fields[field] = msg
			continue
		}
		fields[field] = defaultMessage(field, fe.Tag(), fe.Param())
	}
	return fields
}

func defaultMessage(field, tag, param string) string {
	switch tag {
	case "required", "nonblank":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// DecodeJSON reads a JSON body into dst. Unknown fields are ignored so that
// clients may echo back server-managed attributes.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
