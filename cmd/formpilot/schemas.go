package main

import (
	"fmt"

	"github.com/formpilotai/formpilot/internal/schemas"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect the configured schemas directory",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available form schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		entries, err := schemas.New(cfg.Schemas.Dir).List()
		if err != nil {
			return fmt.Errorf("list schemas: %w", err)
		}

		fmt.Println(renderSchemaTable(entries))
		return nil
	},
}

var schemasGetCmd = &cobra.Command{
	Use:   "get <filename>",
	Short: "Print a schema's raw form_context_md content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		content, err := schemas.New(cfg.Schemas.Dir).Get(args[0])
		if err != nil {
			return fmt.Errorf("get schema: %w", err)
		}

		fmt.Println(content)
		return nil
	},
}

func init() {
	schemasCmd.AddCommand(schemasListCmd)
	schemasCmd.AddCommand(schemasGetCmd)
	rootCmd.AddCommand(schemasCmd)
}

// renderSchemaTable styles schemas the way internal/skill/formatter/table.go
// renders skills: purple header, alternating-gray rows, normal border.
func renderSchemaTable(entries []schemas.Entry) string {
	if len(entries) == 0 {
		return "No schemas found"
	}

	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center).Padding(0, 1)
	oddRowStyle := lipgloss.NewStyle().Foreground(gray).Padding(0, 1)
	evenRowStyle := lipgloss.NewStyle().Foreground(lightGray).Padding(0, 1)
	borderStyle := lipgloss.NewStyle().Foreground(purple)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return evenRowStyle
			default:
				return oddRowStyle
			}
		}).
		Headers("Filename", "Title", "Size")

	for _, e := range entries {
		t.Row(e.Filename, e.Title, fmt.Sprintf("%d B", e.Size))
	}

	return t.String()
}
