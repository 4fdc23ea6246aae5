// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette - shared hex colors for consistent theming across all CLI
// output. Picked for dark terminal backgrounds with good contrast.
const (
	// ColorPrimary is teal - used for titles and primary emphasis.
	ColorPrimary = lipgloss.Color("#14B8A6")

	// ColorMuted is gray - used for secondary text and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for success states and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for errors and failures.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for warnings and attention-needed items.
	ColorWarning = lipgloss.Color("#F59E0B")
)

// Base styles built from the palette.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
)
