package server

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validationOnce sync.Once
	translator     ut.Translator
)

// setupValidation teaches gin's validator to report fields by their form name
// in plain English.
func setupValidation() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
			translator = nil
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// validationError flattens binding errors into one readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if translator == nil || !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, message := range verrs.Translate(translator) {
		messages = append(messages, message)
	}
	sort.Strings(messages)
	return errors.New(strings.Join(messages, "; "))
}
