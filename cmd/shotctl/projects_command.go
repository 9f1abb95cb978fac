// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}

			state := service.State()
			if len(state.Projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects stored.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderProjects(state))
			return nil
		},
	}
}

// renderProjects tabulates every project and marks the current one.
func renderProjects(state shotlist.State) string {
	rows := make([][]string, 0, len(state.Projects))
	for _, project := range state.Projects {
		summary := shotlist.Summarize(project)

		marker := ""
		if summary.ID == state.Selection.CurrentProjectID {
			marker = "*"
		}

		rows = append(rows, []string{
			marker,
			summary.ID,
			summary.Name,
			summary.Director,
			summary.DOP,
			strconv.Itoa(summary.SceneCount),
			strconv.Itoa(summary.ShotCount),
		})
	}

	return renderTable(
		[]string{"", "ID", "Name", "Director", "DOP", "Scenes", "Shots"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}
