package middleware

import (
	"context"
	"strings"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/apperr"
)

// ActingMessage is implemented by commands and queries issued on behalf of a user.
type ActingMessage interface {
	ActingUser() string
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorRequired rejects acting messages that carry no user. Ownership and
// party checks stay in the handlers, which can see the aggregates.
type ActorRequired struct{}

func (ActorRequired) Authorize(_ context.Context, message any) error {
	acting, ok := message.(ActingMessage)
	if !ok {
		return nil
	}
	if strings.TrimSpace(acting.ActingUser()) == "" {
		return apperr.Validation("%s: acting user is required", messageKey(message))
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
