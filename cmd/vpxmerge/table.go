package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

type tableSpec struct {
	title   string
	headers []string
	rows    [][]string
	aligns  []columnAlignment
	footer  []string
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return renderTableSpec(tableSpec{headers: headers, rows: rows, aligns: aligns})
}

func renderTableSpec(spec tableSpec) string {
	columns := len(spec.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if spec.title != "" {
		tw.SetTitle(spec.title)
	}

	tw.AppendHeader(padRow(spec.headers, columns))
	for _, row := range spec.rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(spec.footer) > 0 {
		tw.AppendFooter(padRow(spec.footer, columns))
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(spec.aligns) && spec.aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			AlignFooter:      align,
			WidthMax:         60,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func padRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
