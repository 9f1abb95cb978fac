// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/cinescript/internal/services/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Write a project's shot chart as CSV",
		Long:  "Write a project's shot chart as CSV. Without --out the file is named after the project and today's date; use --out - for stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}

			project, err := service.GetProject(args[0])
			if err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}

			filename, body := export.NewFormatter().Export(project)

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}

			if out == "" {
				out = filename
			}

			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d shots to %s\n", project.ShotCount(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (- for stdout)")

	return cmd
}
