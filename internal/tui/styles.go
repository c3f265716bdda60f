package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/utils"
)

var (
	TabActiveStyle   = utils.TabActiveStyle
	TabInactiveStyle = utils.TabInactiveStyle
	HelpBarStyle     = utils.HelpBarStyle

	sectionStyle = lipgloss.NewStyle().Foreground(utils.InfoLightColor).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(utils.MutedColor).Width(12)

	signatureLineStyle = utils.CriticalStyle
	descriptorStyle    = lipgloss.NewStyle().
				Foreground(utils.TextColor).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(utils.BorderColor).
				PaddingLeft(1)
)

var (
	largeBarStyle     = lipgloss.NewStyle().Foreground(utils.CriticalLightColor)
	wildcardBarStyle  = lipgloss.NewStyle().Foreground(utils.WarningColor)
	unboundedBarStyle = lipgloss.NewStyle().Foreground(utils.WarningLightColor)
	malformedBarStyle = lipgloss.NewStyle().Foreground(utils.MutedColor)
)
