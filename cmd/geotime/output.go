package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OCAP2/geotime/pkg/core"
	"github.com/olekukonko/tablewriter"
)

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}

// timeWindow renders an item window as "start-end", with an open end shown
// as "...".
func timeWindow(item core.MapItem) string {
	end := "..."
	if item.EndTime != nil && *item.EndTime != 0 {
		end = strconv.FormatFloat(*item.EndTime, 'f', -1, 64)
	}
	return fmt.Sprintf("%s-%s", strconv.FormatFloat(item.StartTime, 'f', -1, 64), end)
}

func writeItems(w io.Writer, items []core.MapItem) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			string(item.Kind),
			item.SubType,
			formatCoord(item.Position.Lat),
			formatCoord(item.Position.Lng),
			timeWindow(item),
		})
	}
	return writeTable(w, []string{"Name", "Kind", "Type", "Lat", "Lng", "Window"}, rows)
}

// writeTree prints an org chart as an indented outline.
func writeTree(w io.Writer, node core.CommandNode, depth int) {
	fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), node.Name, node.Role)
	for _, sub := range node.Subordinates {
		writeTree(w, sub, depth+1)
	}
}
