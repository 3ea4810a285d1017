package theme

// thRegisterBuiltins registers all built-in themes in the registry.
func thRegisterBuiltins() {
	for _, t := range []Theme{
		thDefaultTheme(),
		thGruvboxTheme(),
		thNordTheme(),
		thCatppuccinTheme(),
		thDraculaTheme(),
		thTokyoNightTheme(),
	} {
		thRegister(t)
	}
}

// thDefaultTheme returns the dark neutral theme with purple accent.
func thDefaultTheme() Theme {
	return Theme{
		Name:       DefaultName,
		Foreground: "#d4d4d4",
		Dim:        "#6b7280",
		Accent:     "#7c3aed",

		Low:    "#10b981",
		Medium: "#f59e0b",
		High:   "#ef4444",

		Warning:  "#f59e0b",
		Critical: "#ef4444",
		Error:    "#e06c75",
	}
}

// thGruvboxTheme returns the warm retro Gruvbox theme.
func thGruvboxTheme() Theme {
	return Theme{
		Name:       "gruvbox",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#fe8019",

		Low:    "#b8bb26",
		Medium: "#fabd2f",
		High:   "#fb4934",

		Warning:  "#fabd2f",
		Critical: "#fb4934",
		Error:    "#cc241d",
	}
}

// thNordTheme returns the arctic Nord theme.
func thNordTheme() Theme {
	return Theme{
		Name:       "nord",
		Foreground: "#eceff4",
		Dim:        "#4c566a",
		Accent:     "#88c0d0",

		Low:    "#a3be8c",
		Medium: "#ebcb8b",
		High:   "#bf616a",

		Warning:  "#d08770",
		Critical: "#bf616a",
		Error:    "#bf616a",
	}
}

// thCatppuccinTheme returns the Catppuccin Mocha theme.
func thCatppuccinTheme() Theme {
	return Theme{
		Name:       "catppuccin",
		Foreground: "#cdd6f4",
		Dim:        "#6c7086",
		Accent:     "#cba6f7",

		Low:    "#a6e3a1",
		Medium: "#f9e2af",
		High:   "#f38ba8",

		Warning:  "#fab387",
		Critical: "#f38ba8",
		Error:    "#eba0ac",
	}
}

// thDraculaTheme returns the Dracula theme.
func thDraculaTheme() Theme {
	return Theme{
		Name:       "dracula",
		Foreground: "#f8f8f2",
		Dim:        "#6272a4",
		Accent:     "#bd93f9",

		Low:    "#50fa7b",
		Medium: "#f1fa8c",
		High:   "#ff5555",

		Warning:  "#ffb86c",
		Critical: "#ff5555",
		Error:    "#ff79c6",
	}
}

// thTokyoNightTheme returns the Tokyo Night theme.
func thTokyoNightTheme() Theme {
	return Theme{
		Name:       "tokyo-night",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7aa2f7",

		Low:    "#9ece6a",
		Medium: "#e0af68",
		High:   "#f7768e",

		Warning:  "#ff9e64",
		Critical: "#f7768e",
		Error:    "#db4b4b",
	}
}
