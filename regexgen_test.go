package dbgen

import (
	"math/rand"
	"regexp"
	"regexp/syntax"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRandomString(t *testing.T) {
	patterns := []string{
		"[a-z]{8}",
		"[0-9a-f]{4}-[0-9a-f]{4}",
		"(foo|bar|baz)+",
		"a?b*c{2,5}",
		"\\d{3}-\\d{4}",
		".{0,16}",
	}
	rng := rand.New(rand.NewSource(1))
	for _, pattern := range patterns {
		parsed, err := syntax.Parse(pattern, syntax.Perl)
		require.NoError(t, err)
		matcher := regexp.MustCompile("^(?:" + pattern + ")$")
		for i := 0; i < 100; i++ {
			s, err := generateRandomString(rng, parsed, 0)
			require.NoError(t, err)
			require.True(t, matcher.Match(s), "pattern %q produced non-matching %q", pattern, s)
		}
	}
}

func TestGenerateRandomStringMaxRepeat(t *testing.T) {
	parsed, err := syntax.Parse("a*", syntax.Perl)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		s, err := generateRandomString(rng, parsed, 3)
		require.NoError(t, err)
		require.LessOrEqual(t, len(s), 3)
	}
}

func TestGenerateRandomStringDeterminism(t *testing.T) {
	parsed, err := syntax.Parse("[a-z]{16}", syntax.Perl)
	require.NoError(t, err)

	gen := func(seed int64) string {
		rng := rand.New(rand.NewSource(seed))
		s, err := generateRandomString(rng, parsed, 0)
		require.NoError(t, err)
		return string(s)
	}
	require.Equal(t, gen(5), gen(5))
}
