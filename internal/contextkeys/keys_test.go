package contextkeys

import (
	"context"
	"testing"

	"github.com/BatmanBruc/image-credits/types"
	"github.com/stretchr/testify/assert"
)

func TestUserRoundTrip(t *testing.T) {
	_, ok := GetUser(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), types.User{ID: "u1", Email: "a@b.com"})
	user, ok := GetUser(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", user.ID)

	_, ok = GetUser(WithUser(context.Background(), types.User{ID: "u2"}))
	assert.False(t, ok, "a user without email is not signed in")
}

func TestRequestID(t *testing.T) {
	_, ok := GetRequestID(context.Background())
	assert.False(t, ok)

	id, ok := GetRequestID(WithRequestID(context.Background(), "req-1"))
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}
