package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_meals"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/change_delivery_days"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/create_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/pause_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/resume_subscription"
)

func newCreateCmd() *cobra.Command {
	var (
		customerID   string
		planID       string
		days         string
		mealsPerDay  int
		mealsPerWeek int
		start        string
		pauseLimit   int
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a subscription",
		Example: `  mealctl create --customer cust-1 --plan plan-3x --days M,W,F --meals-per-day 2 --meals-per-week 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			req := create_subscription.Request{
				CustomerID:     customerID,
				PlanID:         planID,
				DeliveryDays:   parseDays(days),
				MealsPerDay:    mealsPerDay,
				MealsPerWeek:   mealsPerWeek,
				PauseLimitDays: pauseLimit,
			}
			if start != "" {
				if req.StartDate, err = parseDate(start); err != nil {
					return err
				}
			}

			sub, _, err := a.CreateSubscription.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created subscription %s starting %s (%s)\n",
				sub.ID(), sub.StartDate(), joinCodes(sub.DeliveryDays().Strings()))
			return nil
		},
	}

	cmd.Flags().StringVar(&customerID, "customer", "", "customer ID")
	cmd.Flags().StringVar(&planID, "plan", "", "plan ID")
	cmd.Flags().StringVar(&days, "days", "", "delivery weekday codes, e.g. M,W,F (U=Sun, R=Thu)")
	cmd.Flags().IntVar(&mealsPerDay, "meals-per-day", 1, "meals per delivery")
	cmd.Flags().IntVar(&mealsPerWeek, "meals-per-week", 0, "deliveries per week; must match --days")
	cmd.Flags().StringVar(&start, "start", "", "start date (default today)")
	cmd.Flags().IntVar(&pauseLimit, "pause-limit", 0, "pause allowance in days (default 30)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <subscription-id>",
		Short: "Show subscription counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			sub, err := a.Subscriptions.FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := sub.Progress(a.Clock.Now())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subscription %s (%s)\n", sub.ID(), p.Status)
			fmt.Fprintf(out, "  Delivery days:   %s\n", joinCodes(sub.DeliveryDays().Strings()))
			fmt.Fprintf(out, "  Delivered:       %d meals\n", p.MealsDelivered)
			fmt.Fprintf(out, "  Cancelled:       %d meals in %d cancellations\n", p.MealsCancelled, p.CancellationCount)
			fmt.Fprintf(out, "  Carry forward:   %d meals\n", p.CarryForwardMeals)
			fmt.Fprintf(out, "  Pause days:      %d used, %d remaining\n", p.TotalPausedDays, p.RemainingPauseDays)
			if p.ReservedPauseDays > 0 {
				fmt.Fprintf(out, "  Current pause:   %d days reserved, %d left after it\n", p.ReservedPauseDays, p.AvailablePauseDays())
			}
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "pause <subscription-id>",
		Short: "Pause deliveries over an inclusive date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}

			event, err := a.PauseSubscription.Execute(cmd.Context(), pause_subscription.Request{
				SubscriptionID: args[0],
				StartDate:      start,
				EndDate:        end,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paused %s from %s to %s; %d pause days left\n",
				event.SubscriptionID, event.StartDate, event.EndDate, event.RemainingAfterPause)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first paused day")
	cmd.Flags().StringVar(&to, "to", "", "last paused day")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newResumeCmd() *cobra.Command {
	var (
		on        string
		recommend bool
	)

	cmd := &cobra.Command{
		Use:   "resume <subscription-id>",
		Short: "Resume a paused subscription now or from a delivery date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}

			if recommend {
				next, err := a.ResumeSubscription.Recommend(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Next delivery day: %s\n", next)
				return nil
			}

			req := resume_subscription.Request{SubscriptionID: args[0]}
			if on != "" {
				d, err := parseDate(on)
				if err != nil {
					return err
				}
				req.ResumeDate = &d
			}
			event, err := a.ResumeSubscription.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s; pause ended %s, %d days paused in total\n",
				event.SubscriptionID, event.PauseEndDate, event.TotalPausedDays)
			return nil
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "first delivery date after the pause")
	cmd.Flags().BoolVar(&recommend, "recommend", false, "print the next eligible resume date and exit")
	return cmd
}

func newCancelMealsCmd() *cobra.Command {
	var (
		reason string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "cancel-meals <subscription-id> <date>...",
		Short: "Cancel individual deliveries and bank their meals",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			dates, err := parseDates(args[1:])
			if err != nil {
				return err
			}
			req := cancel_meals.Request{SubscriptionID: args[0], Dates: dates, Reason: reason}
			out := cmd.OutOrStdout()

			if dryRun {
				if err := a.CancelMeals.Check(cmd.Context(), req); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cancellation of %s is allowed\n", joinDates(dates))
				return nil
			}

			resp, err := a.CancelMeals.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			if resp.Event == nil {
				fmt.Fprintln(out, "Nothing to cancel")
				return nil
			}
			fmt.Fprintf(out, "Cancelled %d of %d deliveries (%d meals); %d meals carried forward\n",
				resp.Outcome.Cancelled, resp.Outcome.Requested, resp.Outcome.MealsCancelled, resp.Outcome.CarryForwardAdded)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only check the cutoff and monthly limit")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <subscription-id>",
		Short: "Cancel a subscription for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			event, err := a.CancelSubscription.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s; %d carry-forward meals outstanding\n",
				event.SubscriptionID, event.CarryForwardMeals)
			return nil
		},
	}
}

func newChangeDaysCmd() *cobra.Command {
	var days string

	cmd := &cobra.Command{
		Use:   "change-days <subscription-id>",
		Short: "Replace the delivery weekdays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp()
			if err != nil {
				return err
			}
			sub, err := a.ChangeDeliveryDays.Execute(cmd.Context(), change_delivery_days.Request{
				SubscriptionID: args[0],
				DeliveryDays:   parseDays(days),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now delivers on %s\n", sub.ID(), joinCodes(sub.DeliveryDays().Strings()))
			return nil
		},
	}

	cmd.Flags().StringVar(&days, "days", "", "delivery weekday codes, e.g. M,W,F")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func joinCodes(codes []string) string {
	if len(codes) == 0 {
		return "no days"
	}
	return strings.Join(codes, ",")
}
