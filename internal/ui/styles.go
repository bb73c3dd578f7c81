package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorBreaking  = lipgloss.Color("196") // Red
	colorFresh     = lipgloss.Color("78")  // Green
)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for author and age columns.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorMuted)

// TimeBandHeader style for time band labels (e.g., "Just Now", "Today").
var TimeBandHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// HeaderBar style for the query line at the top.
var HeaderBar = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// CachedBadge marks a page served from the result cache.
var CachedBadge = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorBreaking).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help and empty-state text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FilterBar style for the search input bar.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// SpinnerStyle colors the loading spinner.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// BreakingBanner announces breaking news.
var BreakingBanner = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorBreaking).
	Padding(0, 1)

// UpdateBanner announces new and updated articles.
var UpdateBanner = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorFresh).
	Padding(0, 1)

// DetailTitle style for the article headline.
var DetailTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(1, 2, 0, 2)

// DetailMeta style for the byline.
var DetailMeta = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 2)

// DetailBody style for the excerpt.
var DetailBody = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Padding(1, 2)

// DetailLink style for URLs.
var DetailLink = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Underline(true).
	Padding(0, 2)

// DebugPanel frames the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headings in the overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
