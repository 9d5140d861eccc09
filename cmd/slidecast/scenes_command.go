package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slidecast/internal/domain"
	"slidecast/internal/scenes"
)

func newScenesCommand(ctx *commandContext) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Print the scenes seeded for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := scenes.NewStore()
			list := store.Seed(topic)
			fmt.Fprintln(cmd.OutOrStdout(), renderScenes(list))
			fmt.Fprintf(cmd.OutOrStdout(), "Runtime: %ds across %d scenes\n", scenes.TotalRuntime(list), len(list))
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to seed scenes from")
	return cmd
}

func renderScenes(list []domain.Scene) string {
	rows := make([][]string, 0, len(list))
	for i, s := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Title,
			s.Emphasis,
			strconv.Itoa(s.Duration) + "s",
			s.Gradient[0] + " → " + s.Gradient[1],
		})
	}
	return renderTable(
		[]string{"#", "Title", "Emphasis", "Duration", "Gradient"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
