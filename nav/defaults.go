package nav

// DefaultBackground is the gradient used when no background has been set or
// the stored value is malformed.
const DefaultBackground = "radial-gradient(circle at 50% -20%, #334155, #0f172a, #020617)"

// DefaultCategories returns the built-in starter category set. A fresh slice
// is returned on every call so callers can mutate it freely.
func DefaultCategories() []Category {
	return []Category{
		{
			ID:    "home",
			Title: "Home",
			SubCategories: []SubCategory{
				{
					ID:    "social",
					Title: "Social & Mail",
					Items: []LinkItem{
						{ID: "1", Title: "YouTube", URL: "https://youtube.com", Icon: "Video"},
						{ID: "5", Title: "Gmail", URL: "https://mail.google.com", Icon: "Mail"},
					},
				},
				{
					ID:    "dev-tools",
					Title: "Tools",
					Items: []LinkItem{
						{ID: "2", Title: "GitHub", URL: "https://github.com", Icon: "Github"},
						{ID: "3", Title: "ChatGPT", URL: "https://chat.openai.com", Icon: "Terminal"},
						{ID: "4", Title: "Google", URL: "https://google.com", Icon: "Search"},
					},
				},
			},
		},
	}
}

// DefaultPreferences returns the built-in display preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		CardOpacity:    0.1,
		ThemeColor:     "#6280a3",
		ThemeMode:      ThemeModeDark,
		ThemeColorAuto: true,
		FaviconAPI:     "https://favicon.im/{domain}?larger=true",
		SiteTitle:      "ModernNav",
		FooterGithub:   "https://github.com/lyan0220",
		FooterLinks:    []FooterLink{{Title: "Friendly Links", URL: "https://coyoo.ggff.net/"}},
	}
}

// DefaultSnapshot returns the full default configuration.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Categories:  DefaultCategories(),
		Background:  DefaultBackground,
		Preferences: DefaultPreferences(),
	}
}
