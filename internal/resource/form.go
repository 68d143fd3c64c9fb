// Package resource holds the Role, Room and Bill page schemas.
package resource

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

const invalidValueMessage = "Invalid value"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		return model.PermissionTag(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// messages maps "field.tag" or "field" to the text shown on the form. Indexes are
// dropped so "items.quantity" covers every line item.
type messages map[string]string

var indexPattern = regexp.MustCompile(`\[\d+\]`)

func (m messages) lookup(field, tag string) string {
	generic := indexPattern.ReplaceAllString(field, "")
	if msg, ok := m[generic+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[generic]; ok {
		return msg
	}
	return invalidValueMessage
}

// trimStrings trims whitespace from every string before it is decoded.
func trimStrings(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from == reflect.String {
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}

// wholeNumbers refuses to truncate a fractional number into an integer field.
func wholeNumbers(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from != reflect.Float32 && from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f := reflect.ValueOf(data).Float(); f != math.Trunc(f) {
			return nil, fmt.Errorf("expected a whole number, got %v", f)
		}
	}
	return data, nil
}

// bindForm decodes draft fields into form and validates it. It returns one message per
// field, keyed by the draft field name. A field that failed to decode keeps its type
// message even when it also fails validation.
func bindForm(fields map[string]interface{}, form interface{}, msgs messages) map[string]string {
	errs := map[string]string{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncKind(trimStrings),
			mapstructure.DecodeHookFuncKind(wholeNumbers),
		),
		WeaklyTypedInput: true,
		Result:           form,
	})
	if err != nil {
		panic(err)
	}
	if err := decoder.Decode(fields); err != nil {
		var decodeErr *mapstructure.Error
		if errors.As(err, &decodeErr) {
			for _, e := range decodeErr.Errors {
				field := quotedName(e)
				if _, seen := errs[field]; !seen && field != "" {
					errs[field] = msgs.lookup(field, "type")
				}
			}
		}
		if len(errs) == 0 {
			errs["form"] = invalidValueMessage
			return errs
		}
	}

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs["form"] = invalidValueMessage
			return errs
		}
		for _, fe := range verrs {
			field := fieldKey(fe.Namespace())
			if _, seen := errs[field]; !seen {
				errs[field] = msgs.lookup(field, fe.Tag())
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// fieldKey strips the struct name from a namespace and the index from a trailing
// primitive element: "roleForm.permissions[1]" becomes "permissions",
// "billForm.items[0].quantity" stays "items[0].quantity".
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	if strings.HasSuffix(namespace, "]") {
		if i := strings.LastIndexByte(namespace, '['); i > 0 {
			namespace = namespace[:i]
		}
	}
	return namespace
}

// quotedName extracts the field name from a mapstructure error such as
// "'beds' expected type 'int', got unconvertible type 'string'".
func quotedName(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return fieldKey("form." + msg[start+1:start+1+end])
}
