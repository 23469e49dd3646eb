// Package bind provides query binding and validation helpers for handlers
package bind

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
)

// tagName is the struct tag naming query parameters
const tagName = "query"

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// ValidatorSvc holds a singleton validator and translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *ValidatorSvc
)

// Init initializes the singleton validator with english translations and query tag names
func Init() *ValidatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// messages name the parameter the client sent
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{tagName, "json"} {
				tag := fld.Tag.Get(key)
				if idx := strings.Index(tag, ","); idx >= 0 {
					tag = tag[:idx]
				}
				if tag != "" && tag != "-" {
					return tag
				}
			}
			return fld.Name
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")
		registerShort(v, trans, "oneof", "{0} must be one of [{1}]")

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Get returns the validator singleton, initializing on first use
func Get() *ValidatorSvc { return Init() }

// RegisterValidation registers a custom tag
func RegisterValidation(tag string, fn validator.Func) error {
	return Get().Validator.RegisterValidation(tag, fn)
}

// Query decodes the request query string into T using `query` tags, then validates it
// the first value wins for repeated parameters; unknown parameters are ignored
func Query[T any](r *http.Request) (T, error) {
	var zero T
	dst, err := DecodeValues[T](r.URL.Query())
	if err != nil {
		return zero, err
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// DecodeValues maps url values onto T with weak typing (strings into ints and bools)
func DecodeValues[T any](vals url.Values) (T, error) {
	var dst T
	in := make(map[string]any, len(vals))
	for k, vv := range vals {
		if len(vv) > 0 {
			in[k] = strings.TrimSpace(vv[0])
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		WeaklyTypedInput: true,
		Result:           &dst,
	})
	if err != nil {
		return dst, perr.Wrap(err, perr.ErrorCodeUnknown, "query decoder setup")
	}
	if err := dec.Decode(in); err != nil {
		return dst, perr.Validationf("invalid query parameters: %v", err)
	}
	return dst, nil
}

// Validate runs struct validation and maps the first failure to a Validation error with its field
func Validate(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.Internalf("validation error")
	}
	field, msg := ValidationFieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// ValidationFieldAndMessage returns the first field and translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return "", inv.Error()
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

// registerShort installs a terse translation for tag
func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
