package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
)

// Classify returns a normalized error name suitable for tagging metrics and logs.
// Application errors are named by their code; anything else by the innermost
// concrete type, converted to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if goerrors.Is(err, apperrors.ErrRemoteFetch) {
		return string(apperrors.ErrCodeRemoteFetch)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
