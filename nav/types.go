// Package nav holds the domain model for the start page configuration: the
// category tree, the background value, and the display preferences, together
// with their built-in defaults and validation fallbacks.
package nav

import "encoding/json"

// Field is one of the three independently synchronized configuration slots.
type Field string

const (
	FieldCategories Field = "categories"
	FieldBackground Field = "background"
	FieldPrefs      Field = "prefs"
)

// Fields lists every syncable field in a stable order.
var Fields = []Field{FieldCategories, FieldBackground, FieldPrefs}

// Valid reports whether f names a syncable configuration slot.
func (f Field) Valid() bool {
	switch f {
	case FieldCategories, FieldBackground, FieldPrefs:
		return true
	}
	return false
}

type LinkItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type SubCategory struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Items []LinkItem `json:"items"`
}

type Category struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	SubCategories []SubCategory `json:"subCategories"`
}

type ThemeMode string

const (
	ThemeModeDark  ThemeMode = "dark"
	ThemeModeLight ThemeMode = "light"
)

type FooterLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Preferences struct {
	CardOpacity       float64      `json:"cardOpacity"`
	ThemeColor        string       `json:"themeColor,omitempty"`
	ThemeMode         ThemeMode    `json:"themeMode"`
	ThemeColorAuto    bool         `json:"themeColorAuto,omitempty"`
	MaxContainerWidth int          `json:"maxContainerWidth,omitempty"`
	CardWidth         int          `json:"cardWidth,omitempty"`
	CardHeight        int          `json:"cardHeight,omitempty"`
	GridColumns       int          `json:"gridColumns,omitempty"`
	SiteTitle         string       `json:"siteTitle,omitempty"`
	FaviconAPI        string       `json:"faviconApi,omitempty"`
	FooterGithub      string       `json:"footerGithub,omitempty"`
	FooterLinks       []FooterLink `json:"footerLinks,omitempty"`
}

// Snapshot is the full three-field configuration state at a point in time.
type Snapshot struct {
	Categories  []Category  `json:"categories"`
	Background  string      `json:"background"`
	Preferences Preferences `json:"prefs"`
}

// BootstrapResponse is the payload of GET /api/bootstrap. The three config
// fields stay raw JSON so that one malformed field degrades to its default
// without discarding the others.
type BootstrapResponse struct {
	Categories    json.RawMessage `json:"categories"`
	Background    json.RawMessage `json:"background"`
	Preferences   json.RawMessage `json:"prefs"`
	IsDefaultCode bool            `json:"isDefaultCode"`
	Error         string          `json:"error,omitempty"`
}

// Snapshot normalizes every field of the response, falling back to the
// built-in defaults field by field.
func (b *BootstrapResponse) Snapshot() Snapshot {
	return Snapshot{
		Categories:  NormalizeCategories(b.Categories),
		Background:  BackgroundFromJSON(b.Background),
		Preferences: NormalizePreferences(b.Preferences),
	}
}

// UpdatePayload is the body of POST /api/update.
type UpdatePayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// BackupVersion is the current version of the exported backup envelope.
const BackupVersion = 1

// Backup is the downloadable/importable snapshot envelope.
type Backup struct {
	Version    int             `json:"version"`
	Timestamp  int64           `json:"timestamp"`
	Categories []Category      `json:"categories"`
	Background string          `json:"background,omitempty"`
	Prefs      json.RawMessage `json:"prefs,omitempty"`
}
