// Package report renders ingestion results for the console.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// EmptyMessage is printed instead of an empty product table.
const EmptyMessage = "No products to display."

// Styles holds the lipgloss styles used by the console output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the console palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Value:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A")),
	}
}

// Printer writes console reports to w.
type Printer struct {
	w      io.Writer
	styles Styles
}

// New returns a Printer with the default styles.
func New(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		styles: DefaultStyles(),
	}
}

// FormatPrice formats a price as US dollars with thousands separators.
func FormatPrice(price float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", price)
}

// Products prints records as a Name/Price table, or EmptyMessage.
func (p *Printer) Products(title string, records []core.Record) {
	if title != "" {
		fmt.Fprintln(p.w, p.styles.Title.Render(title))
	}
	if len(records) == 0 {
		fmt.Fprintln(p.w, p.styles.Label.Render(EmptyMessage))
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name(), FormatPrice(r.Price())})
	}
	fmt.Fprintln(p.w, p.table([]string{"Name", "Price"}, rows, 1))
}

// Rejections prints the rejected lines with their reason codes.
func (p *Printer) Rejections(rejections []core.Rejection) {
	if len(rejections) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.styles.Title.Render("Rejected lines"))

	rows := make([][]string, 0, len(rejections))
	for _, r := range rejections {
		rows = append(rows, []string{strconv.Itoa(r.Line), string(r.Code), r.Detail})
	}
	fmt.Fprintln(p.w, p.table([]string{"Line", "Code", "Detail"}, rows, -1))
}

// Summary prints the batch counts and success rate.
func (p *Printer) Summary(s core.BatchSummary) {
	fmt.Fprintln(p.w, p.styles.Title.Render("Summary"))
	p.line("Total data lines", strconv.Itoa(s.TotalLines), p.styles.Value)
	p.line("Accepted", strconv.Itoa(s.Accepted), p.styles.Success)

	rejected := p.styles.Value
	if s.Rejected > 0 {
		rejected = p.styles.Error
	}
	p.line("Rejected", strconv.Itoa(s.Rejected), rejected)
	p.line("Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate()), p.styles.Value)
}

// Run prints the full outcome of a CLI run. show adds the accepted and
// rejected tables.
func (p *Printer) Run(rep *core.RunReport, show bool) {
	if show {
		p.Products("Accepted products", rep.Accepted)
		p.Rejections(rep.Rejected)
	}
	p.Products(fmt.Sprintf("Products above %s", FormatPrice(rep.Threshold)), rep.Filtered)
	p.Summary(rep.Summary)

	if rep.SinkFailures > 0 {
		p.warn(fmt.Sprintf("%d rejection log entries could not be written to %s", rep.SinkFailures, rep.RejectLog))
	}
	if rep.PersistFailures > 0 {
		p.warn(fmt.Sprintf("%d records could not be saved", rep.PersistFailures))
	}
	if rep.OutputErr != nil {
		p.warn(fmt.Sprintf("output %s is incomplete: %v", rep.Output, rep.OutputErr))
	}
}

func (p *Printer) line(label, value string, style lipgloss.Style) {
	fmt.Fprintf(p.w, "%s %s\n", p.styles.Label.Render(label+":"), style.Render(value))
}

func (p *Printer) warn(msg string) {
	fmt.Fprintln(p.w, p.styles.Warning.Render("Warning: "+msg))
}

// table renders rows with a rounded border. Column alignRight is right
// aligned; pass -1 for none.
func (p *Printer) table(headers []string, rows [][]string, alignRight int) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := p.styles.Cell
			if row == table.HeaderRow {
				style = p.styles.Header
			}
			if col == alignRight {
				style = style.Align(lipgloss.Right)
			}
			return style
		}).
		String()
}
