package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// settings is the construction-time configuration of a Driver, checked
// against its tags before the Driver is handed out.
type settings struct {
	Resource string `json:"resource" validate:"required_without=BaseURL"`
	Method   string `json:"method" validate:"omitempty,oneof=GET HEAD POST PUT DELETE"`
	BaseURL  string `json:"base_url" validate:"omitempty,url"`
}

// settingsValidator reports invalid settings in english, naming fields by
// their json tag.
type settingsValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// loadValidator builds the shared settingsValidator on first use.
var loadValidator = sync.OnceValues(newSettingsValidator)

func newSettingsValidator() (*settingsValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	trans, _ := ut.New(en.New()).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("registering translations: %w", err)
	}

	return &settingsValidator{validate: v, translator: trans}, nil
}

// check validates s and collects every failing field.
func (sv *settingsValidator) check(s settings) error {
	err := sv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Err: sv.message(fe)})
	}

	return fields
}

func (sv *settingsValidator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "This field is required"
	case "oneof":
		return fe.Field() + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}

	return fe.Translate(sv.translator)
}

// FieldError is a single invalid configuration field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields returns the failing fields keyed by name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}
