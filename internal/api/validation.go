package api

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	validator "github.com/go-playground/validator/v10"
	"github.com/tradecore/matchcore/internal/matching"
)

var symbolPattern = regexp.MustCompile(fmt.Sprintf(`^[A-Z0-9]{1,%d}$`, matching.MaxSymbolLen))

// RegisterValidators wires the "symbol" tag into gin's default
// validator engine, matching the bounded uppercase-alphanumeric symbol
// format the matching engine accepts.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("symbol", validateSymbol)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateSymbol(fl validator.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}
