package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"neuropulse/internal/models"
	"neuropulse/internal/reward"
	"neuropulse/internal/suggestions"
	"neuropulse/internal/tracker"

	"github.com/spf13/cobra"
)

const scope = models.DefaultScope

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (a *app) addCmd() *cobra.Command {
	var (
		strength   int
		category   string
		result     string
		redirected bool
	)
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Log an impulse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseCategory(category)
			if err != nil {
				return err
			}
			rec, err := a.store.Log(cmd.Context(), scope, tracker.Draft{
				Name:       strings.Join(args, " "),
				Strength:   strength,
				Result:     result,
				Category:   c,
				Redirected: redirected,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (#%d today)\n", rec.ID, rec.RedirectionCount)
			return nil
		},
	}
	cmd.Flags().IntVarP(&strength, "strength", "s", 5, "Impulse strength 1-10")
	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryExplorer), "explorer, lover or achiever")
	cmd.Flags().StringVarP(&result, "result", "r", "", "What you did instead")
	cmd.Flags().BoolVar(&redirected, "redirected", false, "The impulse was redirected")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List logged impulses",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := a.store.State(cmd.Context(), scope)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tNAME\tSTRENGTH\tCATEGORY\tREDIRECTED\tDONE")
			for _, r := range state.Redirections {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", r.ID, r.Date, r.Name, r.Strength, r.Category.Label(), yesNo(r.Redirected), yesNo(r.Completed))
			}
			return w.Flush()
		},
	}
}

func (a *app) completeCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete [id]",
		Short: "Mark an impulse as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, ok := a.store.SetCompleted(cmd.Context(), scope, args[0], !undo)
			if !ok {
				return fmt.Errorf("no impulse with id %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s completed: %s\n", rec.ID, yesNo(rec.Completed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Clear the completed flag instead")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals and success rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.store.Summary(cmd.Context(), scope)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Impulses:      %d\n", s.TotalImpulses)
			fmt.Fprintf(out, "Redirected:    %d\n", s.RedirectedCount)
			fmt.Fprintf(out, "Success rate:  %d%%\n", s.SuccessRate)
			fmt.Fprintf(out, "Today:         %d\n", s.TodaysCount)
			fmt.Fprintf(out, "Counter:       %d\n", s.TotalRedirections)
			for _, c := range models.Categories {
				fmt.Fprintf(out, "  %-12s %d\n", c.Label(), s.ByCategory[c])
			}
			return nil
		},
	}
}

func (a *app) rewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "Show progress towards each reward",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := a.store.State(cmd.Context(), scope)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIER\tTITLE\tTHRESHOLD\tPROGRESS\tREADY")
			for _, st := range reward.Evaluate(state.TotalRedirections, state.RewardSettings) {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%s\n", st.Tier, st.Title, st.Threshold, st.Progress, yesNo(st.Achieved))
			}
			return w.Flush()
		},
	}
}

func (a *app) claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim [small|medium|large]",
		Short: "Claim a reached reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := reward.ParseTier(args[0])
			if err != nil {
				return err
			}
			res, err := a.store.Claim(cmd.Context(), scope, tier)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Counter is now %d\n", res.TotalRedirections)
			return nil
		},
	}
}

func (a *app) thresholdsCmd() *cobra.Command {
	var small, medium, large int
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or change reward thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			th := a.store.State(cmd.Context(), scope).RewardSettings
			changed := false
			for _, f := range []struct {
				flag string
				tier models.RewardTier
				val  int
			}{{"small", models.TierSmall, small}, {"medium", models.TierMedium, medium}, {"large", models.TierLarge, large}} {
				if !cmd.Flags().Changed(f.flag) {
					continue
				}
				r, _ := th.Get(f.tier)
				r.Threshold = f.val
				th = th.With(f.tier, r)
				changed = true
			}
			if changed {
				var err error
				if th, err = a.store.SetThresholds(cmd.Context(), scope, th); err != nil {
					return err
				}
			}
			for _, tier := range models.Tiers {
				r, _ := th.Get(tier)
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %4d  %s\n", tier, r.Threshold, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&small, "small", 0, "Small reward threshold")
	cmd.Flags().IntVar(&medium, "medium", 0, "Medium reward threshold")
	cmd.Flags().IntVar(&large, "large", 0, "Large reward threshold")
	return cmd
}

func (a *app) categoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category [explorer|lover|achiever]",
		Short: "Show or select the active category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c, err := models.ParseCategory(args[0])
				if err != nil {
					return err
				}
				if err := a.store.SelectCategory(cmd.Context(), scope, c); err != nil {
					return err
				}
			}
			c := a.store.State(cmd.Context(), scope).SelectedCategory
			fmt.Fprintf(cmd.OutOrStdout(), "Selected category: %s\n", c.Label())
			return nil
		},
	}
}

func (a *app) suggestionsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "suggestions [query]",
		Short: "Search redirection ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c models.Category
			if category != "" {
				var err error
				if c, err = models.ParseCategory(category); err != nil {
					return err
				}
			}
			for _, m := range suggestions.Search(c, strings.Join(args, " ")) {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", m.Category.Label(), m.Action)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Limit to one category")
	return cmd
}
