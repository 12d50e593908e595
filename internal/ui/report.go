package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
)

// Стили отчета
var (
	// Основные цвета
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")
	// Главный контейнер отчета
	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	// Заголовок отчета
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	// Заголовки секций
	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffffff")).
				Background(secondaryColor).
				Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))
)

// Renderer формирует текстовый отчет по результату симуляции
type Renderer struct {
	config config.UIConfig
}

// NewRenderer создает рендерер отчета
func NewRenderer(cfg config.UIConfig) *Renderer {
	return &Renderer{config: cfg}
}

// Render собирает полный отчет по одному символу
func (r *Renderer) Render(result *models.SimulationResult) string {
	title := titleStyle.Render(fmt.Sprintf("BPSA - %s (%d дней)", result.Symbol, result.LookbackDays))

	sections := []string{
		title,
		"",
		r.renderSummary(result),
		"",
		r.renderDirections(result),
	}

	if r.config.Verbose {
		sections = append(sections, "", r.renderPatterns(result.Patterns))
		sections = append(sections, "", r.renderIndicators(result.Indicators))
		sections = append(sections, "", r.renderConditions(result.Conditions))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// RenderHistory собирает сводку прошлых прогонов по символу,
// от новых к старым
func (r *Renderer) RenderHistory(symbol string, history []*models.SimulationResult) string {
	title := titleStyle.Render(fmt.Sprintf("BPSA - история %s", symbol))
	header := sectionHeaderStyle.Render("ПРОГОНЫ")
	content := strings.Builder{}

	if len(history) == 0 {
		content.WriteString("  Прогонов не найдено\n")
	}
	for _, res := range history {
		content.WriteString(fmt.Sprintf("  %s  %3d дней  %4d сделок  винрейт %.1f%%  %s\n",
			res.GeneratedAt.Format("02.01.2006 15:04"),
			res.LookbackDays,
			res.Overall.TotalTrades,
			res.Overall.WinRatio*100,
			r.formatRecommendation(res.Overall.Recommendation)))
	}

	section := sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", section))
}

// renderSummary секция с итоговой рекомендацией
func (r *Renderer) renderSummary(result *models.SimulationResult) string {
	header := sectionHeaderStyle.Render("ИТОГ")
	content := strings.Builder{}

	content.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render("Рекомендация:"),
		r.formatRecommendation(result.Overall.Recommendation)))
	content.WriteString(fmt.Sprintf("  %s %s (уверенность %s)\n",
		labelStyle.Render("Направление:"),
		string(result.Summary.RecommendedDirection),
		result.Summary.ConfidenceLevel))
	content.WriteString(fmt.Sprintf("  %s %d паттернов, %d сделок, общий винрейт %.1f%%\n",
		labelStyle.Render("Объем данных:"),
		len(result.Patterns),
		result.Overall.TotalTrades,
		result.Overall.WinRatio*100))
	content.WriteString(fmt.Sprintf("  %s %.0f%% (обработано за %s)\n",
		labelStyle.Render("Полнота ряда:"),
		result.Summary.DataQuality*100,
		result.Summary.ProcessingTime))

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// renderDirections секция со статистикой по направлениям
func (r *Renderer) renderDirections(result *models.SimulationResult) string {
	header := sectionHeaderStyle.Render("НАПРАВЛЕНИЯ")
	content := strings.Builder{}

	content.WriteString(r.formatDirection("LONG ", result.LongAnalysis))
	content.WriteString(r.formatDirection("SHORT", result.ShortAnalysis))
	content.WriteString(fmt.Sprintf("  %s %.1f%% в пользу %s\n",
		labelStyle.Render("Преимущество:"),
		result.Overall.DirectionAdvantage*100,
		string(result.Overall.BestDirection)))

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// formatDirection одна строка статистики направления
func (r *Renderer) formatDirection(name string, analysis *models.WinRatioAnalysis) string {
	if analysis == nil || analysis.TotalTrades == 0 {
		return fmt.Sprintf("  %s: сделок нет\n", name)
	}

	ratio := fmt.Sprintf("%.1f%%", analysis.WinRatio*100)
	if r.config.Color {
		style := lipgloss.NewStyle().Foreground(warningColor)
		if analysis.WinRatio >= 0.6 {
			style = lipgloss.NewStyle().Foreground(successColor).Bold(true)
		} else if analysis.WinRatio < 0.4 {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		ratio = style.Render(ratio)
	}

	return fmt.Sprintf("  %s: %s (%d/%d), PnL %.2f, PF %.2f, Шарп %.2f, просадка %.2f, CI [%.2f; %.2f]\n",
		name, ratio, analysis.WinningTrades, analysis.TotalTrades,
		analysis.TotalPnL, analysis.ProfitFactor,
		analysis.SharpeRatio, analysis.MaxDrawdown,
		analysis.ConfidenceLow, analysis.ConfidenceHigh)
}

// renderPatterns секция со списком найденных паттернов
func (r *Renderer) renderPatterns(detected []*models.PatternMatch) string {
	header := sectionHeaderStyle.Render("ПАТТЕРНЫ")
	content := strings.Builder{}

	if len(detected) == 0 {
		content.WriteString("  Паттерны не найдены\n")
	}
	for _, p := range detected {
		content.WriteString(fmt.Sprintf("  %s  %-22s %-8s conf %.2f  уровень %.2f\n",
			p.Timestamp.Format("02.01 15:04"),
			string(p.Kind),
			string(p.Direction),
			p.Confidence,
			p.PriceLevel))
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// renderIndicators секция со срезом индикаторов
func (r *Renderer) renderIndicators(snap models.IndicatorSnapshot) string {
	header := sectionHeaderStyle.Render("ИНДИКАТОРЫ")
	content := strings.Builder{}

	content.WriteString(fmt.Sprintf("  RSI %.1f  MACD %.4f/%.4f  ATR %.2f\n",
		snap.RSI, snap.MACD, snap.MACDSignal, snap.ATR))
	content.WriteString(fmt.Sprintf("  BB [%.2f / %.2f / %.2f]  close %.2f\n",
		snap.BBLower, snap.BBMiddle, snap.BBUpper, snap.LastClose))

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// renderConditions секция с разметкой рыночных режимов
func (r *Renderer) renderConditions(conditions []*models.MarketCondition) string {
	header := sectionHeaderStyle.Render("РЕЖИМЫ")
	content := strings.Builder{}

	if len(conditions) == 0 {
		content.WriteString("  Разметка недоступна\n")
	}
	for _, c := range conditions {
		content.WriteString(fmt.Sprintf("  %s - %s  %-16s волатильность %.2f%%  объем %s\n",
			c.Start.Format("02.01 15:04"),
			c.End.Format("02.01 15:04"),
			string(c.Regime),
			c.Volatility,
			c.VolumeProfile))
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content.String()))
}

// formatRecommendation окрашивает рекомендацию по ее смыслу
func (r *Renderer) formatRecommendation(recommendation string) string {
	if !r.config.Color {
		return recommendation
	}

	var style lipgloss.Style
	switch recommendation {
	case models.RecommendationFavorable:
		style = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	case models.RecommendationModerate:
		style = lipgloss.NewStyle().Foreground(successColor)
	case models.RecommendationUnfavorable:
		style = lipgloss.NewStyle().Foreground(errorColor)
	default:
		style = lipgloss.NewStyle().Foreground(warningColor)
	}

	return style.Render(recommendation)
}
