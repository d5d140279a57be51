package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/xuri/excelize/v2"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("cell", isCellName); err != nil {
		return nil, nil, fmt.Errorf("failed to register cell validation: %w", err)
	}
	if err := validate.RegisterTranslation("cell", trans, func(ut ut.Translator) error {
		return ut.Add("cell", "{0} must be a cell reference such as D1", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("cell", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register cell translation: %w", err)
	}

	return validate, trans, nil
}

func isCellName(fl validator.FieldLevel) bool {
	_, _, err := excelize.CellNameToCoordinates(strings.ToUpper(fl.Field().String()))
	return err == nil
}
