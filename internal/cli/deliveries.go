package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/next_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/record_delivery"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/schedule_deliveries"
)

func newNextCmd() *cobra.Command {
	var count, horizon int

	cmd := &cobra.Command{
		Use:   "next <subscription-id>",
		Short: "List the next delivery days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			dates, err := a.NextDeliveries.Execute(cmd.Context(), next_deliveries.Request{
				SubscriptionID: args[0],
				Count:          count,
				HorizonDays:    horizon,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, "No delivery day within the horizon")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintf(out, "%s %s\n", d, d.In(time.UTC).Weekday())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 3, "number of dates")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "days to search (default from DELIVERY_HORIZON_DAYS)")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [subscription-id]",
		Short: "Create scheduled delivery records for the coming days",
		Long: `Creates a scheduled delivery record for every eligible day in the
scheduling window that has none yet. Without an ID every active and paused
subscription is scheduled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			req := schedule_deliveries.Request{}
			if len(args) == 1 {
				req.SubscriptionID = args[0]
			}
			resp, err := a.ScheduleDeliveries.Execute(cmd.Context(), req)
			if resp != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %d deliveries for %d subscriptions (%d failed)\n",
					resp.Scheduled, resp.Subscriptions, resp.Failed)
			}
			return err
		},
	}
}

func newRecordDeliveryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record-delivery <delivery-id>",
		Short: "Confirm that a scheduled delivery was made",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			event, err := a.RecordDelivery.Execute(cmd.Context(), record_delivery.Request{DeliveryID: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d meals to %s on %s\n",
				event.MealsCount, event.SubscriptionID, event.Date)
			return nil
		},
	}
}
