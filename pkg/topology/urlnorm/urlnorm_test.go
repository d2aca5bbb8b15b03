package urlnorm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase host and trailing slash", in: "https://Example.COM/path/", want: "https://example.com/path"},
		{name: "tracking param", in: "https://example.com/page?utm_source=google&id=123", want: "https://example.com/page?id=123"},
		{name: "sorted query on bare domain", in: "https://example.com?z=1&a=2&m=3", want: "https://example.com/?a=2&m=3&z=1"},
		{name: "www", in: "https://www.example.com/path", want: "https://example.com/path"},
		{name: "fragment", in: "https://example.com/path#section", want: "https://example.com/path"},
		{name: "missing scheme", in: "example.com/path", want: "https://example.com/path"},
		{name: "default https port", in: "https://example.com:443/path", want: "https://example.com/path"},
		{name: "default http port", in: "http://example.com:80/path", want: "http://example.com/path"},
		{name: "non-default port", in: "https://example.com:8080/path", want: "https://example.com:8080/path"},
		{name: "click ids", in: "https://example.com/page?fbclid=abc&gclid=def&real=yes", want: "https://example.com/page?real=yes"},
		{name: "utm variants", in: "https://example.com?utm_source=a&utm_medium=b&utm_campaign=c&keep=1", want: "https://example.com/?keep=1"},
		{name: "only tracking", in: "https://example.com/page?utm_source=google&fbclid=abc", want: "https://example.com/page"},
		{name: "keeps real params", in: "https://example.com/search?q=rust&page=2", want: "https://example.com/search?page=2&q=rust"},
		{name: "many trailing slashes", in: "https://example.com/path///", want: "https://example.com/path"},
		{name: "bare domain", in: "https://example.com/", want: "https://example.com"},
		{name: "empty value", in: "https://example.com/p?flag&b=1", want: "https://example.com/p?b=1&flag"},
		{name: "surrounding space", in: "  example.com  ", want: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize("https://www.Example.COM/Path?z=1&a=2&utm_source=x#frag")
	require.NoError(t, err)
	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "not a url", "https://"} {
		_, err := Normalize(in)
		assert.True(t, errors.Is(err, internalerr.ErrInvalidInput), "input %q: %v", in, err)
	}
}

func TestCanonicalKey(t *testing.T) {
	k, err := CanonicalKey("https://www.example.com/path?a=1")
	require.NoError(t, err)
	assert.Equal(t, "example.com/path?a=1", k)

	k1, err := CanonicalKey("https://example.com/path")
	require.NoError(t, err)
	k2, err := CanonicalKey("http://example.com/path")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	_, err = CanonicalKey("")
	assert.Error(t, err)
}

func TestIsTrackingParam(t *testing.T) {
	for _, k := range []string{"utm_source", "utm_medium", "fbclid", "gclid", "FBCLID", "si", "ref"} {
		assert.True(t, IsTrackingParam(k), k)
	}
	for _, k := range []string{"id", "page", "q"} {
		assert.False(t, IsTrackingParam(k), k)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Web Dev", want: "web-dev"},
		{in: "AI & ML", want: "ai-ml"},
		{in: "  spaces  ", want: "spaces"},
		{in: "Hello World!", want: "hello-world"},
		{in: "rust/systems", want: "rust-systems"},
		{in: "Rust, Ownership, Borrow", want: "rust-ownership-borrow"},
		{in: "", want: ""},
		{in: "---", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
