package lazy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/delaneyj/screwless/lazy"
)

func TestStatus(t *testing.T) {
	t.Run("zero value is pending", func(t *testing.T) {
		var s lazy.Status[int]
		assert.True(t, s.IsPending())
		assert.Equal(t, lazy.KindPending, s.Kind())
		_, ok := s.Value()
		assert.False(t, ok)
	})

	t.Run("complete with an absent value", func(t *testing.T) {
		s := lazy.Complete[*int](nil)
		assert.True(t, s.IsComplete())
		v, ok := s.Value()
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.NoError(t, s.Err())
	})

	t.Run("error drops the value", func(t *testing.T) {
		boom := errors.New("boom")
		s := lazy.Failed[int](boom)
		assert.True(t, s.IsError())
		assert.ErrorIs(t, s.Err(), boom)
		assert.Equal(t, 7, s.ValueOr(7))
	})

	t.Run("error without cause is still an error", func(t *testing.T) {
		s := lazy.Failed[int](nil)
		assert.True(t, s.IsError())
		assert.Error(t, s.Err())
	})

	t.Run("match", func(t *testing.T) {
		render := func(s lazy.Status[int]) string {
			return lazy.Match(s,
				func() string { return "spinner" },
				func(v int) string { return "value" },
				func(err error) string { return "error: " + err.Error() },
			)
		}
		assert.Equal(t, "spinner", render(lazy.Pending[int]()))
		assert.Equal(t, "value", render(lazy.Complete(3)))
		assert.Equal(t, "error: boom", render(lazy.Failed[int](errors.New("boom"))))
		assert.Equal(t, "", lazy.Match[int, string](lazy.Complete(1), nil, nil, nil))
	})

	t.Run("map keeps the variant", func(t *testing.T) {
		double := func(v int) int { return v * 2 }
		assert.Equal(t, lazy.Complete(4), lazy.MapStatus(lazy.Complete(2), double))
		assert.True(t, lazy.MapStatus(lazy.Pending[int](), double).IsPending())
		assert.True(t, lazy.MapStatus(lazy.Failed[int](errors.New("x")), double).IsError())
	})

	t.Run("strings", func(t *testing.T) {
		assert.Equal(t, "pending", lazy.Pending[int]().String())
		assert.Equal(t, "complete(1)", lazy.Complete(1).String())
		assert.Equal(t, "error(x)", lazy.Failed[int](errors.New("x")).String())
	})
}
