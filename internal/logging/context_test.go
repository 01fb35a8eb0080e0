package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFromContext(t *testing.T) {
	def := zap.NewNop().Named("default")
	scoped := zap.NewNop().Named("scoped")

	assert.Same(t, def, FromContext(context.Background(), def))
	assert.Same(t, scoped, FromContext(ContextWithLogger(context.Background(), scoped), def))
	assert.Same(t, zap.L(), FromContext(context.Background(), nil))

	ctx := ContextWithLogger(context.Background(), nil)
	assert.Same(t, def, FromContext(ctx, def))
}
