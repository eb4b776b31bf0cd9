package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xecut-space/xecut-bot/internal/visit"
)

func newCleanupCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete visit records past the retention window",
		Long:  fmt.Sprintf("One-shot retention sweep: deletes every visit older than %d days. The serve command runs the same sweep periodically.", visit.RetentionDays),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer closeDB(database)

			store := visit.NewStore(database)
			if err := store.Cleanup(cmd.Context(), visit.Today()); err != nil {
				return err
			}

			fmt.Println("cleanup done")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.xecut-bot/xecut.db)")

	return cmd
}
