package cart

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 20

// Summary is the cart as the view shows it. Units is the ledger's item
// count, the sum of all quantities.
type Summary struct {
	Items []domain.LineItem
	Units int
}

type RenderOptions struct {
	// BarWidth is the width of the per-item share bar. Zero uses the default,
	// a negative value hides the bar.
	BarWidth int
}

// Render draws the cart: a header with line and unit counts, then one block
// per line item in cart order.
func Render(summary Summary, opts RenderOptions) string {
	s := newStyles()

	lines := []string{
		s.title.Render("Cart"),
		s.header.Render(fmt.Sprintf("items: %d  units: %d", len(summary.Items), summary.Units)),
	}

	if len(summary.Items) == 0 {
		lines = append(lines, s.empty.Render("Cart is empty."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, item := range summary.Items {
		lines = append(lines, s.section.Render(renderItem(item, summary.Units, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderItem(item domain.LineItem, units int, opts RenderOptions, s styles) string {
	parts := []string{
		s.item.Render(itemTitle(item)),
		s.detail.Render(fmt.Sprintf("qty: %d  price: %.2f", item.Quantity, item.Price)),
	}

	width := opts.BarWidth
	if width == 0 {
		width = defaultBarWidth
	}
	if width > 0 {
		share := sharePercent(item.Quantity, units)
		shareStyle := lipgloss.NewStyle().Foreground(interpolateColor(share, 0, 100))
		parts = append(parts, lipgloss.JoinHorizontal(
			lipgloss.Top,
			renderShareBar(share, width, s),
			" ",
			shareStyle.Render(fmt.Sprintf("%2.0f%% of units", share)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func itemTitle(item domain.LineItem) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return string(item.ID)
	}

	return fmt.Sprintf("%s (%s)", title, item.ID)
}

func sharePercent(quantity, units int) float64 {
	if units <= 0 {
		return 0
	}

	return clampPercent(float64(quantity) * 100 / float64(units))
}

func renderShareBar(percent float64, width int, s styles) string {
	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
