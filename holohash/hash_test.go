package holohash_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/screwless/holohash"
)

func TestHash(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		h := holohash.FromContent(holohash.KindAction, []byte("offer"))
		s := h.String()
		assert.True(t, strings.HasPrefix(s, "uhCkk"), s)
		assert.Equal(t, holohash.KindAction, h.Kind())
		assert.Equal(t, "action", h.Kind().String())

		parsed, err := holohash.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	})

	t.Run("entry and agent prefixes", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(holohash.Random(holohash.KindEntry).String(), "uhCEk"))
		assert.True(t, strings.HasPrefix(holohash.Random(holohash.KindAgent).String(), "uhCAk"))
	})

	t.Run("content addressed", func(t *testing.T) {
		a := holohash.FromContent(holohash.KindEntry, []byte("x"))
		b := holohash.FromContent(holohash.KindEntry, []byte("x"))
		c := holohash.FromContent(holohash.KindEntry, []byte("y"))
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
		assert.Equal(t, a.Sum64(), b.Sum64())
		assert.NoError(t, a.Validate())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, s := range []string{"", "hCkk", "u!!!", "uhCkk"} {
			_, err := holohash.Parse(s)
			assert.Error(t, err, s)
		}

		h := holohash.Random(holohash.KindAction)
		h[holohash.Size-1] ^= 0xff
		_, err := holohash.Parse(h.String())
		assert.Error(t, err, "location mismatch")
	})

	t.Run("json", func(t *testing.T) {
		h := holohash.Random(holohash.KindAction)
		b, err := json.Marshal(map[string]holohash.ActionHash{"hash": h})
		require.NoError(t, err)

		var out map[string]holohash.ActionHash
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, h, out["hash"])
	})

	t.Run("usable as map key", func(t *testing.T) {
		h := holohash.Random(holohash.KindAction)
		m := map[holohash.ActionHash]int{h: 1}
		assert.Equal(t, 1, m[holohash.MustParse(h.String())])
		assert.False(t, h.IsZero())
		assert.True(t, holohash.Hash{}.IsZero())
		assert.Contains(t, h.Short(), "…")
	})
}
