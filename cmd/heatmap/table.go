package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}

func toRow(values []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(values) {
			r[i] = values[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

// gridCell is one season/episode square of the rating grid. Rating is nil
// for unrated or absent episodes.
type gridCell struct {
	Rating *float64
	Absent bool
}

// renderGrid lays seasons out as rows and episode numbers as columns. Cells
// are tinted by rating when colorize is set.
func renderGrid(seasons []int, cells map[int]map[int]gridCell, maxEpisode int, colorize bool) string {
	if len(seasons) == 0 || maxEpisode == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, maxEpisode+1)
	header = append(header, "S\\E")
	for ep := 1; ep <= maxEpisode; ep++ {
		header = append(header, strconv.Itoa(ep))
	}
	tw.AppendHeader(header)

	for _, season := range seasons {
		row := make(table.Row, 0, maxEpisode+1)
		row = append(row, "S"+strconv.Itoa(season))
		for ep := 1; ep <= maxEpisode; ep++ {
			cell, ok := cells[season][ep]
			row = append(row, gridCellText(cell, ok, colorize))
		}
		tw.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, 0, maxEpisode+1)
	for i := 2; i <= maxEpisode+1; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render() + "\n"
}

func gridCellText(cell gridCell, present, colorize bool) string {
	switch {
	case !present:
		return ""
	case cell.Absent:
		return "x"
	case cell.Rating == nil:
		return "?"
	}
	value := strconv.FormatFloat(*cell.Rating, 'f', 1, 64)
	if colorize {
		return ratingColor(*cell.Rating).Sprint(value)
	}
	return value
}

func ratingColor(rating float64) text.Colors {
	switch {
	case rating >= 9:
		return text.Colors{text.FgHiGreen, text.Bold}
	case rating >= 8:
		return text.Colors{text.FgGreen}
	case rating >= 7:
		return text.Colors{text.FgYellow}
	case rating >= 6:
		return text.Colors{text.FgHiRed}
	default:
		return text.Colors{text.FgRed}
	}
}
