// server/exchange.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinizap/notesync/server/auth"
	"github.com/vinizap/notesync/server/filesystem"
	"github.com/vinizap/notesync/server/notebook"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's folders and notes as markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("user")
		dir, _ := cmd.Flags().GetString("dir")

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := auth.NewUsers(st).Lookup(ctx, username)
		if err != nil {
			return fmt.Errorf("user %q: %w", username, err)
		}
		x := filesystem.NewExchange(notebook.New(st, notebook.WithLogger(logger)), logger)
		sum, err := x.Export(ctx, u.ID, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d folders and %d notes to %s\n", sum.Folders, sum.Notes, dir)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a markdown directory tree for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("user")
		dir, _ := cmd.Flags().GetString("dir")
		folder, _ := cmd.Flags().GetString("folder")

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := auth.NewUsers(st).Lookup(ctx, username)
		if err != nil {
			return fmt.Errorf("user %q: %w", username, err)
		}
		var parentID *string
		if folder != "" {
			parentID = &folder
		}
		x := filesystem.NewExchange(notebook.New(st, notebook.WithLogger(logger)), logger)
		sum, err := x.Import(ctx, u.ID, dir, parentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d folders and %d notes from %s\n", sum.Folders, sum.Notes, dir)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().String("user", "", "owning username")
		c.Flags().String("dir", "", "directory to write or read")
		_ = c.MarkFlagRequired("user")
		_ = c.MarkFlagRequired("dir")
	}
	importCmd.Flags().String("folder", "", "id of the folder to import under (default: top level)")
	rootCmd.AddCommand(exportCmd, importCmd)
}
