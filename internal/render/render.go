// Package render draws the analysis dashboard and request status as styled
// terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/stockpulse/internal/session"
	"github.com/seenimoa/stockpulse/internal/view"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	companyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	flatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gaugeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	errorPanelStyle = panelStyle.BorderForeground(lipgloss.Color("9"))
)

var badgeStyles = map[view.Variant]lipgloss.Style{
	view.VariantBuy:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
	view.VariantStrongBuy:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("46")),
	view.VariantSell:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
	view.VariantStrongSell: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("196")),
	view.VariantHold:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
}

var neutralBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))

// MinWidth is the narrowest layout the dashboard supports.
const MinWidth = 40

func polarityStyle(p view.Polarity) lipgloss.Style {
	switch p {
	case view.Positive:
		return gainStyle
	case view.Neutral:
		return flatStyle
	default:
		return lossStyle
	}
}

func rsiStyle(z view.RSIZone) lipgloss.Style {
	switch z {
	case view.Overbought:
		return lossStyle
	case view.Oversold:
		return gainStyle
	default:
		return gaugeStyle
	}
}

func trendArrow(p view.Polarity) string {
	switch p {
	case view.Positive:
		return "▲"
	case view.Neutral:
		return "►"
	default:
		return "▼"
	}
}

// Bar draws a horizontal meter of the given width filled to fraction.
// fraction is clamped to [0, 1].
func Bar(fraction float64, width int) string {
	if width < 1 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Dashboard renders every panel of d for a terminal of the given width.
func Dashboard(d view.Dashboard, width int) string {
	if width < MinWidth {
		width = MinWidth
	}
	inner := width - 4
	panel := panelStyle.Width(width - 2)

	sections := []string{
		panel.Render(header(d, inner)),
		panel.Render(alpha(d, inner)),
		panel.Render(technicals(d)),
		panel.Render(section("Executive Intelligence Synthesis", wrap(d.Summary, inner))),
	}
	if d.BusinessSummary != "" {
		sections = append(sections, panel.Render(section("Business Profile", wrap(d.BusinessSummary, inner))))
	}
	sections = append(sections,
		panel.Render(headlines(d, inner)),
		panel.Render(peers(d, inner)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func header(d view.Dashboard, inner int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Symbol + " / " + d.Exchange))
	b.WriteString("\n")
	b.WriteString(companyStyle.Render(d.CompanyName))
	b.WriteString("\n")
	b.WriteString(priceStyle.Render(d.PriceText))
	b.WriteString("  ")
	trend := polarityStyle(d.TrendPolarity)
	b.WriteString(trend.Render(trendArrow(d.TrendPolarity) + " " + d.Trend + " Indicator"))
	return b.String()
}

func alpha(d view.Dashboard, inner int) string {
	badge, ok := badgeStyles[d.RecommendationVariant]
	if !ok {
		badge = neutralBadge
	}

	barWidth := inner - 12
	if barWidth > 50 {
		barWidth = 50
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Neural Alpha Score"))
	b.WriteString("\n")
	b.WriteString(gaugeStyle.Render(Bar(d.GaugeFraction, barWidth)))
	b.WriteString(fmt.Sprintf(" %3d/100", d.AlphaRounded))
	b.WriteString("\n")
	b.WriteString(badge.Render(" " + d.Recommendation + " "))
	if d.SentimentText != "" {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("News sentiment "))
		b.WriteString(d.SentimentText)
	}
	return b.String()
}

func technicals(d view.Dashboard) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Technical Momentum Indicators"))
	b.WriteString("\n")

	rsi := rsiStyle(d.RSIZone)
	b.WriteString(row("Relative Strength (RSI)", rsi.Render(d.RSIText)+" "+rsi.Render(Bar(d.RSI/100, 20))+" "+dimStyle.Render(string(d.RSIZone))))

	sma := d.SMA50Text
	if d.SMAPosition == view.AboveSMA {
		sma += " " + gainStyle.Render("● Trading Above SMA")
	} else {
		sma += " " + lossStyle.Render("● Trading Below SMA")
	}
	b.WriteString(row("Moving Average (SMA 50)", sma))

	macd := d.MACDText
	if d.MACDSignalText != "" {
		macd += dimStyle.Render(" signal " + d.MACDSignalText)
	}
	b.WriteString(row("Trend Momentum (MACD)", macd))
	b.WriteString(row("Short-term EMA (20)", d.EMA20Text))
	return strings.TrimSuffix(b.String(), "\n")
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-25s", label)) + value + "\n"
}

func headlines(d view.Dashboard, inner int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Neural Sentiment Feed"))
	if len(d.Headlines) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No headlines."))
		return b.String()
	}
	for _, h := range d.Headlines {
		b.WriteString("\n")
		b.WriteString(companyStyle.Render(wrap(h.Title, inner)))
		if h.Link != "" {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(truncate(h.Link, inner)))
		}
		if h.HasImpact {
			b.WriteString("\n")
			b.WriteString(accentStyle.Render("Impact: " + h.Impact))
		}
	}
	return b.String()
}

func peers(d view.Dashboard, inner int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Sector Pulse"))
	for _, p := range d.Peers {
		b.WriteString("\n")
		line := fmt.Sprintf("%-14s", p.Ticker) + polarityStyle(p.Sign).Render(fmt.Sprintf("%8s", p.ChangeText))
		if p.PriceText != "" {
			line += "  " + p.PriceText
		}
		if p.PEText != "" {
			line += dimStyle.Render("  P/E " + p.PEText)
		}
		b.WriteString(line)
	}
	if d.SectorPEText != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Sector P/E avg ") + d.SectorPEText)
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(wrap(view.PeerFootnote(d.PeerCount), inner)))
	return b.String()
}

func section(title, body string) string {
	return labelStyle.Render(title) + "\n" + body
}

// Status renders the non-result part of a state: the pending line or the
// failure panel. It returns "" for idle and succeeded states.
func Status(st session.State, spinner string, width int) string {
	if width < MinWidth {
		width = MinWidth
	}
	switch st.Status {
	case session.Pending:
		return pendingStyle.Render(strings.TrimSpace(spinner + " Processing neural signals for " + st.Ticker + "..."))
	case session.Failed:
		return errorPanelStyle.Width(width - 2).Render(errorStyle.Render("Analysis failed") + "\n" + wrap(st.Message, width-4))
	default:
		return ""
	}
}

func wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width < 2 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
