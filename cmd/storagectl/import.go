package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
)

func newImportCmd(e *env) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV or XLSX file into one user's inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errors.New("--user must not be blank")
			}
			ctx := logging.WithUserID(cmd.Context(), userID)

			st, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			src, err := core.OpenSource(info.Name(), f, info.Size())
			if err != nil {
				return err
			}

			svc := core.NewService(st)
			summary, err := svc.For(userID).Import(ctx, filepath.Base(args[0]), src)
			if errors.Is(err, core.ErrMissingColumns) {
				return errors.New(core.FormatUserError(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Owner of the imported records (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
