// Package actorctx reads the identity the access gate attached to a request context.
package actorctx

import (
	"context"

	"github.com/geocoder89/authhub/internal/http/middlewares"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, middlewares.KeyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(middlewares.KeyUserID).(string)

	return v, ok && v != ""
}

// TokenIDFrom returns the jti of the token that authorized the request.
func TokenIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(middlewares.KeyTokenID).(string)

	return v, ok && v != ""
}
