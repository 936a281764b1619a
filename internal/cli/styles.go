package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/example/job-tracker/internal/application"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// statusColors groups statuses by how far along an application is.
var statusColors = map[application.JobStatus]lipgloss.Color{
	application.StatusApplied:            "#5FAFFF",
	application.StatusPhoneScreen:        "#FFAF00",
	application.StatusTechnicalInterview: "#FFAF00",
	application.StatusOnsiteInterview:    "#FFAF00",
	application.StatusFinalInterview:     "#FF8700",
	application.StatusOffer:              "#04B575",
	application.StatusRejected:           "#FF5F87",
	application.StatusWithdrawn:          "#626262",
	application.StatusOnHold:             "#626262",
}

func statusStyle(status application.JobStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(color)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func field(w io.Writer, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = mutedStyle.Render("-")
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}
