package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/focus"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
	"github.com/Shrikantlala24/flow-habit-alchemy/tui"
)

func newFocusCmd(a *app) *cobra.Command {
	var (
		taskRef      string
		completeTask bool
		focusMinutes int
		breakMinutes int
	)
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run the focus timer and credit the minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				prefs, err := svc.Preferences(ctx)
				if err != nil {
					return err
				}
				if focusMinutes <= 0 {
					focusMinutes = prefs.FocusDuration
				}
				if breakMinutes <= 0 {
					breakMinutes = prefs.BreakDuration
				}
				session, err := focus.NewSession(focusMinutes, breakMinutes)
				if err != nil {
					return err
				}

				opts := tui.Options{CompleteTask: completeTask}
				if taskRef != "" {
					t, err := findTask(ctx, svc, taskRef)
					if err != nil {
						return err
					}
					opts.TaskID, opts.TaskTitle = t.ID, t.Title
				}

				out, err := tui.Run(ctx, svc, session, opts)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if !out.Saved {
					fmt.Fprintln(w, mutedStyle.Render("focus session discarded"))
					return nil
				}
				fmt.Fprintf(w, "%s %s focus time credited\n", iconTimer, formatMinutes(out.Minutes))
				if out.Focus != nil {
					for _, id := range out.Focus.Unlocked {
						fmt.Fprintf(w, "%s %s\n", goodStyle.Render("Achievement unlocked:"), id)
					}
				}
				if out.Completed != nil && out.Completed.Found {
					writeCompletion(w, domain.Task{ID: opts.TaskID, Title: opts.TaskTitle}, *out.Completed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&taskRef, "task", "t", "", "Task to focus on (id or prefix)")
	cmd.Flags().BoolVar(&completeTask, "complete", false, "Complete the task when the session is saved")
	cmd.Flags().IntVar(&focusMinutes, "minutes", 0, "Focus block length (default from preferences)")
	cmd.Flags().IntVar(&breakMinutes, "break", 0, "Break length (default from preferences)")
	return cmd
}
