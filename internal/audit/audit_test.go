package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, Principal(context.Background()))
	})

	t.Run("present", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), "isabelle")
		assert.Equal(t, "isabelle", Principal(ctx))
	})

	t.Run("empty name is ignored", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), "")
		assert.Empty(t, Principal(ctx))
	})
}
