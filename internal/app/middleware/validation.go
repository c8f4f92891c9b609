package middleware

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/apperr"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// StructValidator checks `validate` struct tags on commands and queries.
// Messages without tags pass through untouched.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &StructValidator{v: v}
}

func (s *StructValidator) Validate(_ context.Context, message any) error {
	if message == nil {
		return nil
	}
	rv := reflect.ValueOf(message)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := s.v.Struct(message)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation("%s: field %s failed %q", messageKey(message), fe.Field(), fe.Tag())
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return apperr.Validation("%s: %v", messageKey(message), err)
}

func messageKey(message any) string {
	if k, ok := message.(interface{ Key() string }); ok {
		return k.Key()
	}
	return fmt.Sprintf("%T", message)
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
