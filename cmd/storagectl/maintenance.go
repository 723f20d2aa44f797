package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/storagetracker/internal/admin"
)

func newResetCmd(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every user, location and item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer e.closeStore()
			if err := admin.Reset(cmd.Context(), st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, locations and items",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer e.closeStore()
			stats, err := admin.Seed(cmd.Context(), st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d users, %d locations, %d items\n",
				stats.Users, stats.Locations, stats.Items)
			return nil
		},
	}
}

func newMigrateBoxCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-box",
		Short: "Convert stored box numbers to integers",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer e.closeStore()
			res, err := admin.MigrateBox(cmd.Context(), st)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total items processed:        %d\n", res.Total)
			fmt.Fprintf(out, "Items updated:                %d\n", res.Updated)
			fmt.Fprintf(out, "  - Converted to integer:     %d\n", res.Converted)
			fmt.Fprintf(out, "  - Set to null:              %d\n", res.Nullified)
			fmt.Fprintf(out, "  - Already integer:          %d\n", res.AlreadyInt)
			fmt.Fprintf(out, "Errors encountered:           %d\n", res.Errors)
			return nil
		},
	}
}
