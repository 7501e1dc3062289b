package nav

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// NormalizeCategories parses raw JSON into a category tree. A missing, empty
// or malformed payload yields the built-in default set; entries that survive
// parsing get missing ids filled in.
func NormalizeCategories(raw []byte) []Category {
	if len(raw) == 0 {
		return DefaultCategories()
	}
	var cats []Category
	if err := json.Unmarshal(raw, &cats); err != nil || len(cats) == 0 {
		return DefaultCategories()
	}
	return EnsureCategoryIDs(cats)
}

// EnsureCategoryIDs assigns generated ids to categories, sub-categories and
// links that lack one, so imported or hand-edited data stays addressable.
func EnsureCategoryIDs(cats []Category) []Category {
	for i := range cats {
		if cats[i].ID == "" {
			cats[i].ID = uuid.New().String()
		}
		for j := range cats[i].SubCategories {
			sub := &cats[i].SubCategories[j]
			if sub.ID == "" {
				sub.ID = uuid.New().String()
			}
			for k := range sub.Items {
				if sub.Items[k].ID == "" {
					sub.Items[k].ID = uuid.New().String()
				}
			}
		}
	}
	return cats
}

// NormalizeBackground validates a stored background value. An empty value or
// anything that is not a usable CSS background string falls back to the
// default gradient. A value that arrives double-encoded as a JSON string is
// unwrapped once; an object is treated as malformed.
func NormalizeBackground(bg string) string {
	bg = strings.TrimSpace(bg)
	if strings.HasPrefix(bg, `"`) {
		var unwrapped string
		if err := json.Unmarshal([]byte(bg), &unwrapped); err == nil {
			bg = strings.TrimSpace(unwrapped)
		}
	}
	if bg == "" || strings.HasPrefix(bg, "{") || strings.HasPrefix(bg, "[") {
		return DefaultBackground
	}
	return bg
}

// BackgroundFromJSON decodes a background field received as JSON and
// normalizes it. Non-string JSON falls back to the default gradient.
func BackgroundFromJSON(raw []byte) string {
	if len(raw) == 0 {
		return DefaultBackground
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultBackground
	}
	return NormalizeBackground(s)
}

// NormalizePreferences parses raw JSON into display preferences. Each
// sub-field is defaulted independently: one malformed value never discards
// the rest of the object.
func NormalizePreferences(raw []byte) Preferences {
	prefs := DefaultPreferences()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return prefs
	}

	if v, ok := fields["cardOpacity"]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil && f >= 0 && f <= 1 {
			prefs.CardOpacity = f
		}
	}
	if v, ok := fields["themeColor"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			prefs.ThemeColor = s
		}
	}
	if v, ok := fields["themeMode"]; ok {
		var m ThemeMode
		if err := json.Unmarshal(v, &m); err == nil && (m == ThemeModeDark || m == ThemeModeLight) {
			prefs.ThemeMode = m
		}
	}
	if v, ok := fields["themeColorAuto"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			prefs.ThemeColorAuto = b
		}
	}
	if v, ok := fields["maxContainerWidth"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && n > 0 {
			prefs.MaxContainerWidth = n
		}
	}
	if v, ok := fields["cardWidth"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && n > 0 {
			prefs.CardWidth = n
		}
	}
	if v, ok := fields["cardHeight"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && n > 0 {
			prefs.CardHeight = n
		}
	}
	if v, ok := fields["gridColumns"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && n > 0 {
			prefs.GridColumns = n
		}
	}
	if v, ok := fields["siteTitle"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			prefs.SiteTitle = s
		}
	}
	if v, ok := fields["faviconApi"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			prefs.FaviconAPI = s
		}
	}
	if v, ok := fields["footerGithub"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			prefs.FooterGithub = s
		}
	}
	if v, ok := fields["footerLinks"]; ok {
		var links []FooterLink
		if err := json.Unmarshal(v, &links); err == nil {
			prefs.FooterLinks = links
		}
	}

	return prefs
}
