package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/moffa90/go-halfkay/protocol"
)

var styles = struct {
	err    lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}{
	err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(1)),
	header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)).Padding(0, 1),
	cell:   lipgloss.NewStyle().Padding(0, 1),
	border: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
}

// listMCUs prints the supported microcontrollers.
func listMCUs(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.border).
		Headers("MCU", "CODE SIZE", "BLOCK SIZE", "FORMAT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			if col > 0 && col < 3 {
				return styles.cell.Align(lipgloss.Right)
			}
			return styles.cell
		})

	for _, p := range protocol.Profiles() {
		format, err := protocol.Classify(p)
		if err != nil {
			return err
		}
		t.Row(p.Name, strconv.Itoa(p.CodeSize), strconv.Itoa(p.BlockSize), format.String())
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
