package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show level, streak and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *progression.Service) error {
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				writeStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func writeStats(w io.Writer, s domain.UserStats) {
	fmt.Fprintln(w, heading(iconSparkle, "Progress"))
	summary := []string{
		labelValue("Level", s.Level),
		labelValue("XP", fmt.Sprintf("%s %d/%d", progressBar(s.Experience, s.ExperienceToNextLevel, 20), s.Experience, s.ExperienceToNextLevel)),
		labelValue("Tasks completed", s.TasksCompleted),
		labelValue("Streak", fmt.Sprintf("%s %d days (longest %d)", iconFire, s.Streak.Current, s.Streak.Longest)),
		labelValue("Focus time", iconTimer+" "+formatMinutes(s.FocusTime)),
	}
	fmt.Fprintln(w, panelStyle.Render(strings.Join(summary, "\n")))

	fmt.Fprintln(w, h2Style.Render(iconTrophy+" Achievements"))
	for _, ach := range s.Achievements {
		state := mutedStyle.Render(fmt.Sprintf("%d/%d", ach.Progress, ach.Target))
		if ach.Unlocked() {
			state = goodStyle.Render("unlocked " + ach.UnlockedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "%s %-16s %s %s\n", ach.Icon, ach.Title, progressBar(ach.Progress, ach.Target, 10), state)
	}
}
