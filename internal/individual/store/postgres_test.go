package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persreg/internal/individual/models"
)

func TestBuildFilter(t *testing.T) {
	t.Run("active slice without search", func(t *testing.T) {
		where, params := buildFilter(models.ListQuery{Deleted: false})
		assert.Equal(t, "WHERE is_deleted = $1", where)
		assert.Equal(t, []any{false}, params)
	})

	t.Run("deleted slice is a toggle, not an additive filter", func(t *testing.T) {
		where, params := buildFilter(models.ListQuery{Deleted: true})
		assert.Equal(t, "WHERE is_deleted = $1", where)
		assert.Equal(t, []any{true}, params)
	})

	t.Run("search appends one bound wildcard pattern", func(t *testing.T) {
		where, params := buildFilter(models.ListQuery{Search: "Smith"})
		assert.Contains(t, where, "is_deleted = $1 AND (national_code ILIKE $2")
		assert.Contains(t, where, "patronymic ILIKE $2)")
		require.Len(t, params, 2)
		assert.Equal(t, "%Smith%", params[1])
	})

	t.Run("search term is never interpolated into the SQL text", func(t *testing.T) {
		where, _ := buildFilter(models.ListQuery{Search: "'; DROP TABLE individuals; --"})
		assert.NotContains(t, where, "DROP TABLE")
	})

	t.Run("pattern metacharacters are escaped before wildcarding", func(t *testing.T) {
		_, params := buildFilter(models.ListQuery{Search: `50%_a\b`})
		require.Len(t, params, 2)
		assert.Equal(t, `%50\%\_a\\b%`, params[1])
	})
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"100%":    `100\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
		"":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeLike(in), "input %q", in)
	}
}
