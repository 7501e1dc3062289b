package nav_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xingkaijun/modernnav/nav"
)

func TestNormalizeCategoriesFallsBackToDefaults(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"empty array", "[]"},
		{"not an array", `{"id":"home"}`},
		{"malformed json", `[{"id":`},
		{"null", "null"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nav.NormalizeCategories([]byte(tc.raw))
			assert.Equal(t, nav.DefaultCategories(), got)
		})
	}
}

// Fallback must be deterministic: every call on corrupt input yields the same
// default set, never an empty result.
func TestNormalizeCategoriesFallbackIsIdempotent(t *testing.T) {
	first := nav.NormalizeCategories([]byte("{corrupt"))
	second := nav.NormalizeCategories([]byte("{corrupt"))

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestNormalizeCategoriesKeepsValidData(t *testing.T) {
	raw := `[{"id":"work","title":"Work","subCategories":[{"id":"ci","title":"CI","items":[{"id":"a","title":"Builds","url":"https://ci.example.com"}]}]}]`

	got := nav.NormalizeCategories([]byte(raw))

	require.Len(t, got, 1)
	assert.Equal(t, "work", got[0].ID)
	assert.Equal(t, "Builds", got[0].SubCategories[0].Items[0].Title)
}

func TestEnsureCategoryIDsFillsMissing(t *testing.T) {
	cats := []nav.Category{{
		Title: "No ID",
		SubCategories: []nav.SubCategory{{
			Title: "Also no ID",
			Items: []nav.LinkItem{{Title: "Link", URL: "https://example.com"}},
		}},
	}}

	got := nav.EnsureCategoryIDs(cats)

	assert.NotEmpty(t, got[0].ID)
	assert.NotEmpty(t, got[0].SubCategories[0].ID)
	assert.NotEmpty(t, got[0].SubCategories[0].Items[0].ID)
}

func TestNormalizeBackground(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain value kept", "linear-gradient(#000, #fff)", "linear-gradient(#000, #fff)"},
		{"url kept", "https://example.com/bg.png", "https://example.com/bg.png"},
		{"empty falls back", "", nav.DefaultBackground},
		{"whitespace falls back", "   ", nav.DefaultBackground},
		{"double-encoded unwrapped", `"https://example.com/bg.png"`, "https://example.com/bg.png"},
		{"object is malformed", `{"data":"x"}`, nav.DefaultBackground},
		{"array is malformed", `["x"]`, nav.DefaultBackground},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nav.NormalizeBackground(tc.in))
		})
	}
}

func TestBackgroundFromJSON(t *testing.T) {
	assert.Equal(t, "https://x.test/a.png", nav.BackgroundFromJSON([]byte(`"https://x.test/a.png"`)))
	assert.Equal(t, nav.DefaultBackground, nav.BackgroundFromJSON(nil))
	assert.Equal(t, nav.DefaultBackground, nav.BackgroundFromJSON([]byte(`42`)))
	assert.Equal(t, nav.DefaultBackground, nav.BackgroundFromJSON([]byte(`{"data":"x"}`)))
}

func TestNormalizePreferencesDefaultsWholeObject(t *testing.T) {
	for _, raw := range []string{"", "null", "[1,2]", `"text"`, "{bad"} {
		got := nav.NormalizePreferences([]byte(raw))
		assert.Equal(t, nav.DefaultPreferences(), got, "input %q", raw)
	}
}

func TestNormalizePreferencesDefaultsSubFieldsIndependently(t *testing.T) {
	raw := `{"cardOpacity":"not-a-number","themeColor":123,"themeMode":"neon","siteTitle":"My Page"}`

	got := nav.NormalizePreferences([]byte(raw))

	def := nav.DefaultPreferences()
	assert.Equal(t, def.CardOpacity, got.CardOpacity)
	assert.Equal(t, def.ThemeColor, got.ThemeColor)
	assert.Equal(t, def.ThemeMode, got.ThemeMode)
	assert.Equal(t, "My Page", got.SiteTitle)
}

func TestNormalizePreferencesKeepsValidValues(t *testing.T) {
	raw := `{"cardOpacity":0.5,"themeColor":"#ffffff","themeMode":"light","themeColorAuto":false,"gridColumns":6}`

	got := nav.NormalizePreferences([]byte(raw))

	assert.Equal(t, 0.5, got.CardOpacity)
	assert.Equal(t, "#ffffff", got.ThemeColor)
	assert.Equal(t, nav.ThemeModeLight, got.ThemeMode)
	assert.False(t, got.ThemeColorAuto)
	assert.Equal(t, 6, got.GridColumns)
}

func TestBootstrapResponseSnapshot(t *testing.T) {
	resp := nav.BootstrapResponse{
		Categories:  json.RawMessage(`[{"id":"c1","title":"C1","subCategories":[]}]`),
		Background:  json.RawMessage(`"#112233"`),
		Preferences: json.RawMessage(`{"cardOpacity":0.3,"themeMode":"dark"}`),
	}

	snap := resp.Snapshot()

	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "c1", snap.Categories[0].ID)
	assert.Equal(t, "#112233", snap.Background)
	assert.Equal(t, 0.3, snap.Preferences.CardOpacity)
}
