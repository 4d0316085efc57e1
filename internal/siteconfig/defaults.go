package siteconfig

const (
	// DefaultEndpoint is the CMS repository used when neither the base nor
	// the environment names one.
	DefaultEndpoint = "opendv"

	DefaultQuality           = 70
	DefaultCharset           = "utf-8"
	DefaultCompatibilityDate = "2025-03-18"
	DefaultTransitionName    = "page"

	compatibilityDateLayout = "2006-01-02"
)

// DefaultFormats returns the output formats used when none are declared.
func DefaultFormats() []Format {
	return []Format{FormatWebP, FormatAVIF, FormatJPEG}
}

// DefaultBreakpoints returns the six-tier screen map.
func DefaultBreakpoints() map[string]int {
	return map[string]int{
		TierXS:  320,
		TierSM:  640,
		TierMD:  768,
		TierLG:  1024,
		TierXL:  1280,
		TierXXL: 1536,
	}
}

// DefaultBase returns the declared configuration of the OPEN DV site.
func DefaultBase() Base {
	quality := DefaultQuality
	devtools := true

	return Base{
		Site: SiteBase{
			Title:    "OPEN DV",
			Charset:  DefaultCharset,
			Viewport: "width=device-width, minimal-ui initial-scale=1, user-scalable=no",
			Links: []Link{
				{Rel: "icon", Type: "image/png", Href: "/fav.png"},
				{Rel: "shortcut icon", Href: "/fav.png"},
				{Rel: "apple-touch-icon", Href: "/fav.png"},
			},
			Meta: map[string]string{
				"description": "Simone Bozzelli is an Italian film and music video director. Based in Rome, Italy",
				"keywords":    "",
			},
			PageTransition: &PageTransition{Name: DefaultTransitionName, Mode: TransitionDefault},
		},
		Modules: []string{
			"@nuxtjs/prismic",
			"@nuxtjs/tailwindcss",
			"@formkit/auto-animate/nuxt",
			"@nuxt/image",
			"vue3-carousel-nuxt",
		},
		Image: ImageBase{
			Quality:     &quality,
			Formats:     DefaultFormats(),
			Breakpoints: DefaultBreakpoints(),
		},
		CMS: CMSBase{
			Endpoint: DefaultEndpoint,
		},
		StyleSheets: []string{
			"@/assets/fonts/fonts.css",
			"@/assets/sass/main.sass",
		},
		Build: BuildBase{
			CompatibilityDate: DefaultCompatibilityDate,
			Devtools:          &devtools,
			Experimental:      map[string]bool{"wasm": true},
		},
	}
}
