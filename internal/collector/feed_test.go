package collector

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSourcesAreValid(t *testing.T) {
	srcs := DefaultSources()
	require.Len(t, srcs, 8)

	var kr, intl int
	for _, s := range srcs {
		require.NoError(t, s.Validate())
		u, err := url.Parse(s.URL)
		require.NoError(t, err)
		assert.Contains(t, u.Query().Get("q"), "when:1d")
		if s.Region == RegionKR {
			kr++
			assert.Equal(t, "ko", u.Query().Get("hl"))
		} else {
			intl++
			assert.Equal(t, "en", u.Query().Get("hl"))
		}
	}
	assert.Equal(t, 4, kr)
	assert.Equal(t, 4, intl)
}

func TestDefaultSourcesReturnsCopy(t *testing.T) {
	srcs := DefaultSources()
	srcs[0].URL = "https://mutated.example"
	assert.NotEqual(t, "https://mutated.example", DefaultSources()[0].URL)
}

func TestLoadFeedSources(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "feeds.toml")
	require.NoError(t, os.WriteFile(good, []byte(`
[[feeds]]
url = "https://example.com/bio.xml"
category = "bio"
region = "intl"

[[feeds]]
url = "https://example.com/ai.xml"
category = "ai"
region = "kr"
`), 0o644))

	srcs, err := LoadFeedSources(good)
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, FeedSource{URL: "https://example.com/ai.xml", Category: CategoryAI, Region: RegionKR}, srcs[1])

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`
[[feeds]]
url = "https://example.com/x.xml"
category = "sports"
region = "kr"
`), 0o644))
	_, err = LoadFeedSources(bad)
	assert.ErrorContains(t, err, "unknown category")

	empty := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte(``), 0o644))
	_, err = LoadFeedSources(empty)
	assert.Error(t, err)

	_, err = LoadFeedSources(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	srcs, err = LoadFeedSources("")
	require.NoError(t, err)
	assert.Len(t, srcs, 8)
}

func TestFeedSourceValidate(t *testing.T) {
	assert.Error(t, FeedSource{}.Validate())
	assert.Error(t, FeedSource{URL: "ftp://x.example/feed", Category: CategoryAI, Region: RegionKR}.Validate())
	assert.Error(t, FeedSource{URL: "https://x.example/feed", Category: CategoryAI, Region: "eu"}.Validate())
	assert.NoError(t, FeedSource{URL: "https://x.example/feed", Category: CategoryAI, Region: RegionKR}.Validate())
}
