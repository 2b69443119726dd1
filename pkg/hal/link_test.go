package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rels    []string
		attrs   map[string]any
		wantErr bool
	}{
		{name: "single relation", rels: []string{"self"}},
		{name: "multiple relations", rels: []string{"self", "canonical"}},
		{name: "no relations", rels: nil, wantErr: true},
		{name: "empty relation", rels: []string{"self", ""}, wantErr: true},
		{name: "scalar attributes", rels: []string{"self"}, attrs: map[string]any{"title": "x", "n": 1, "b": true}},
		{name: "string array attribute", rels: []string{"self"}, attrs: map[string]any{"hreflang": []string{"en", "de"}}},
		{name: "mixed array attribute", rels: []string{"self"}, attrs: map[string]any{"bad": []any{"en", 1}}, wantErr: true},
		{name: "empty attribute name", rels: []string{"self"}, attrs: map[string]any{"": "x"}, wantErr: true},
		{name: "object attribute", rels: []string{"self"}, attrs: map[string]any{"obj": map[string]any{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewLink(tt.rels, "/x", false, tt.attrs)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestLink_Immutability(t *testing.T) {
	t.Parallel()

	original, err := NewLink([]string{"self"}, "/a", false, map[string]any{"title": "A"})
	require.NoError(t, err)

	t.Run("WithHref", func(t *testing.T) {
		t.Parallel()

		changed := original.WithHref("/b")
		assert.Equal(t, "/a", original.Href())
		assert.Equal(t, "/b", changed.Href())
	})

	t.Run("WithRel", func(t *testing.T) {
		t.Parallel()

		changed, err := original.WithRel("next")
		require.NoError(t, err)
		assert.Equal(t, []string{"self"}, original.Rels())
		assert.Equal(t, []string{"self", "next"}, changed.Rels())

		same, err := original.WithRel("self")
		require.NoError(t, err)
		assert.True(t, same.Equal(original))

		_, err = original.WithRel("")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("WithoutRel", func(t *testing.T) {
		t.Parallel()

		two, err := original.WithRel("next")
		require.NoError(t, err)

		one, err := two.WithoutRel("self")
		require.NoError(t, err)
		assert.Equal(t, []string{"next"}, one.Rels())
		assert.Equal(t, []string{"self", "next"}, two.Rels())

		same, err := original.WithoutRel("absent")
		require.NoError(t, err)
		assert.True(t, same.Equal(original))

		_, err = original.WithoutRel("self")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("WithAttribute", func(t *testing.T) {
		t.Parallel()

		changed, err := original.WithAttribute("title", "B")
		require.NoError(t, err)

		title, _ := original.Attribute("title")
		assert.Equal(t, "A", title)

		title, _ = changed.Attribute("title")
		assert.Equal(t, "B", title)

		_, err = original.WithAttribute("list", []any{"a", 2})
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("WithoutAttribute", func(t *testing.T) {
		t.Parallel()

		changed := original.WithoutAttribute("title")
		_, ok := changed.Attribute("title")
		assert.False(t, ok)

		_, ok = original.Attribute("title")
		assert.True(t, ok)

		assert.True(t, original.WithoutAttribute("absent").Equal(original))
	})

	t.Run("attribute slices are not aliased", func(t *testing.T) {
		t.Parallel()

		langs := []string{"en"}
		link, err := NewLink([]string{"alternate"}, "/x", false, map[string]any{"hreflang": langs})
		require.NoError(t, err)

		langs[0] = "fr"

		value, _ := link.Attribute("hreflang")
		assert.Equal(t, []string{"en"}, value)
	})
}

func TestLink_Equal(t *testing.T) {
	t.Parallel()

	a, err := NewLink([]string{"self"}, "/a", true, map[string]any{"hreflang": []string{"en"}})
	require.NoError(t, err)

	b, err := NewLink([]string{"self"}, "/a", true, map[string]any{"hreflang": []any{"en"}})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(a.WithTemplated(false)))
	assert.False(t, a.Equal(a.WithHref("/b")))
}

func TestLinkSet(t *testing.T) {
	t.Parallel()

	self := MustLink("self", "/a")
	next := MustLink("next", "/a?page=2")

	set := NewLinkSet(self, next, self)
	assert.Equal(t, 2, set.Len())
	assert.Len(t, set.LinksByRel("self"), 1)
	assert.Empty(t, set.LinksByRel("prev"))

	without := set.WithoutLink(self)
	assert.Equal(t, 1, without.Len())
	assert.Equal(t, 2, set.Len())

	assert.Equal(t, 2, set.WithLink(next).Len())
}
