package contextkeys

import (
	"context"

	"github.com/BatmanBruc/image-credits/types"
)

type userKey struct{}
type requestIDKey struct{}

func WithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func GetUser(ctx context.Context) (types.User, bool) {
	v, ok := ctx.Value(userKey{}).(types.User)
	if !ok || v.Email == "" {
		return types.User{}, false
	}
	return v, true
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}
