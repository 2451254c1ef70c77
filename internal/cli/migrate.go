package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (r *RootCommand) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the task store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// NewApp ensures the schema.
			app, err := r.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", app.config.Database.Driver)
			return nil
		},
	}
}
