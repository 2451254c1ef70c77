package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taskbot/internal/bot"
)

func (r *RootCommand) newSendCommand() *cobra.Command {
	var (
		userID int64
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send one chat message and print the reply",
		Long: `Send one chat message as a user and print the bot's reply.

Arguments are joined with spaces. A reply carrying a document (from /export)
is written to --out and its path is printed.

EXAMPLES:
  taskbot send --user 42 buy milk
  taskbot send --user 42 /done 1
  taskbot send --user 42 --out /tmp /export`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}

			app, err := r.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			reply := app.handler.Handle(cmd.Context(), bot.Message{
				OwnerID: userID,
				Text:    strings.Join(args, " "),
			})

			out := cmd.OutOrStdout()
			if reply.Document == nil {
				fmt.Fprintln(out, reply.Text)
				return nil
			}

			path := filepath.Join(outDir, reply.Document.Filename)
			if err := os.WriteFile(path, reply.Document.Content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			if reply.Caption != "" {
				fmt.Fprintln(out, reply.Caption)
			}
			fmt.Fprintln(out, path)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Chat user id to send as")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory for exported documents")

	return cmd
}
