package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cashbook/internal/services"
)

func dedupeCmd(a *app) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Report movements recorded more than once",
		Long: `Groups movements that share owner, date, amount and description.

Without --apply the groups are only listed. With --apply every group is
reduced to its oldest movement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.openDB(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = closeDB() }()

			svc := services.NewDedupeService(db)
			out := cmd.OutOrStdout()

			groups, err := svc.FindDuplicateMovements(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(out, "No duplicate movements found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OWNER\tDATE\tAMOUNT\tDESCRIPTION\tCOPIES")
			redundant := 0
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					g.OwnerID, g.Date.Format("2006-01-02"), g.Amount.StringFixed(2), g.Description, len(g.MovementIDs))
				redundant += len(g.MovementIDs) - 1
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !apply {
				fmt.Fprintf(out, "%d redundant movement(s); rerun with --apply to remove them\n", redundant)
				return nil
			}
			removed, err := svc.RemoveDuplicateMovements(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d duplicate movement(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete the redundant movements")
	return cmd
}
