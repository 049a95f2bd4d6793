package ui

import (
	"io"
	"strings"
	"unicode/utf8"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Column configures a column in the table.
type Column struct {
	Header       string
	Align        Align // default: AlignLeft
	MaxWidth     int   // 0 = unlimited; longer cells are cut with "…"
	PaddingRight int   // default: 2 spaces
}

type Table struct {
	columns []Column
	rows    [][]string

	ShowHeader    bool
	ShowSeparator bool
}

func NewTable(columns ...Column) *Table {
	for i := range columns {
		if columns[i].PaddingRight == 0 {
			columns[i].PaddingRight = 2
		}
	}

	return &Table{
		columns:       columns,
		ShowHeader:    true,
		ShowSeparator: true,
	}
}

// AddRow appends a row. Missing cells are left empty, extra cells dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = truncate(cells[i], t.columns[i].MaxWidth)
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Render(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	widths := t.computeWidths()

	if t.ShowHeader {
		headers := make([]string, len(t.columns))
		for i, c := range t.columns {
			headers[i] = truncate(c.Header, c.MaxWidth)
		}
		if err := t.writeRow(w, headers, widths); err != nil {
			return err
		}
		if t.ShowSeparator {
			seps := make([]string, len(t.columns))
			for i := range t.columns {
				seps[i] = strings.Repeat("-", widths[i])
			}
			if err := t.writeRow(w, seps, widths); err != nil {
				return err
			}
		}
	}

	for _, row := range t.rows {
		if err := t.writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) computeWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = runeLen(truncate(col.Header, col.MaxWidth))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runeLen(cell))
		}
	}
	return widths
}

func (t *Table) writeRow(w io.Writer, cells []string, widths []int) error {
	var b strings.Builder
	for i, cell := range cells {
		col := t.columns[i]
		b.WriteString(align(cell, widths[i], col.Align))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", col.PaddingRight))
		}
	}
	_, err := io.WriteString(w, strings.TrimRight(b.String(), " ")+"\n")
	return err
}

func truncate(s string, maxWidth int) string {
	const ell = "…"
	if maxWidth <= 0 || runeLen(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return takeRunes(s, 1)
	}
	return takeRunes(s, maxWidth-1) + ell
}

func align(s string, width int, a Align) string {
	l := runeLen(s)
	if l >= width {
		return s
	}
	pad := strings.Repeat(" ", width-l)
	if a == AlignRight {
		return pad + s
	}
	return s + pad
}

func runeLen(s string) int {
	// rune count, not terminal cell width
	return utf8.RuneCountInString(s)
}

func takeRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
