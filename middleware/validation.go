package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ose-micro/mediator"
)

// ErrValidation wraps every error returned by Validation.
var ErrValidation = errors.New("middleware: request validation failed")

type validatable interface {
	Validate() error
}

// Validation rejects invalid requests before they reach the handler. Struct
// tags are checked with v when it is non-nil, then Validate is called on
// requests that implement it (every mediator.Command does).
func Validation(v *validator.Validate) mediator.MiddlewareFunc {
	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		if v != nil {
			if err := v.StructCtx(ctx, request); err != nil {
				var invalid *validator.InvalidValidationError
				if !errors.As(err, &invalid) {
					return nil, fmt.Errorf("%w: %s: %w", ErrValidation, request.RequestName(), err)
				}
			}
		}

		if r, ok := request.(validatable); ok {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrValidation, request.RequestName(), err)
			}
		}

		return next(ctx, request)
	}
}
