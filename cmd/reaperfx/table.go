package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reaper-video-fx/internal/domain"
)

// valueWidth caps the value column so plugin paths wrap instead of widening the table.
const valueWidth = 72

// column describes one rendered table column.
type column struct {
	title string
	align text.Align
	// wrap, when set, hard-wraps cell text at this many runes.
	wrap int
}

var (
	trackColumns = []column{
		{title: "#", align: text.AlignRight},
		{title: "Index", align: text.AlignRight},
		{title: "Name", align: text.AlignLeft},
	}
	fieldColumns = []column{
		{title: "Field", align: text.AlignLeft},
		{title: "Value", align: text.AlignLeft, wrap: valueWidth},
	}
)

// trackTable renders REAPER tracks with both the 1-based position and the raw index.
func trackTable(tracks []domain.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		name := track.Name
		if name == "" {
			name = "(unnamed)"
		}
		rows = append(rows, []string{strconv.Itoa(track.Index + 1), strconv.Itoa(track.Index), name})
	}
	return renderColumns(trackColumns, rows)
}

// field is one label/value pair of a status table.
type field struct {
	label string
	value string
}

// fieldTable renders label/value pairs, skipping pairs with an empty value.
func fieldTable(fields []field) string {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		rows = append(rows, []string{f.label, f.value})
	}
	return renderColumns(fieldColumns, rows)
}

func renderColumns(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
		}
		if c.wrap > 0 {
			configs[i].WidthMax = c.wrap
			configs[i].WidthMaxEnforcer = text.WrapHard
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
