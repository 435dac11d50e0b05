package main

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/matst80/wsbridge/internal/target"
)

// printTargets writes the configured targets as a table, with the path a
// front end connects to for each.
func printTargets(w io.Writer, reg *target.Registry, prefix string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Mode", "Address", "Path"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, d := range reg.List() {
		table.Append([]string{d.Name, d.Mode.String(), d.Address, prefix + d.Name})
	}
	table.Render()
}
