package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/tablecall/internal/booking"
	"github.com/example/tablecall/internal/config"
	"github.com/example/tablecall/internal/db"
)

func newBookingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Inspect bookings",
	}
	cmd.AddCommand(newBookingListCmd())
	return cmd
}

func newBookingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			store := booking.NewPGStore(d)
			bookings, err := store.ListAll(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tRESTAURANT\tDATE\tTIME\tPARTY\tCREATED")
			for _, b := range bookings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					b.ID, b.Status, b.RestaurantName, b.Date,
					b.Time, b.PartySize, b.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
