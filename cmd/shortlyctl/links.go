package main

import (
	"Shortly-Backend/internal/database"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "List all links with their visit counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, db, err := openStorage()
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		links, err := storage.ListLinks(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCODE\tVISITS\tURL\tTITLE")
		for _, l := range links {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.ID, l.Code, l.Visits, l.URL, l.Title)
		}
		return tw.Flush()
	},
}
