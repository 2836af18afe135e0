package quote

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/pricecompare-api/internal/common"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator failures into a VALIDATION_FAILED AppError
// whose details map each offending field path to the rule it broke.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.NewAppError(common.CodeBadRequest, "invalid payload", http.StatusBadRequest, err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return common.ValidationError("invalid request", details)
}

// fieldPath drops the root struct name: "SessionRequest.items[0].unitPrice" becomes
// "items[0].unitPrice".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
