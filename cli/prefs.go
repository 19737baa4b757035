package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}
	cmd.AddCommand(newPrefsShowCmd(a), newPrefsSetCmd(a))
	return cmd
}

func newPrefsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *progression.Service) error {
				prefs, err := svc.Preferences(cmd.Context())
				if err != nil {
					return err
				}
				writePrefs(cmd.OutOrStdout(), prefs)
				return nil
			})
		},
	}
}

func writePrefs(w io.Writer, p domain.UserPreferences) {
	fmt.Fprintln(w, labelValue("Theme", p.Theme))
	fmt.Fprintln(w, labelValue("Notifications", p.Notifications))
	fmt.Fprintln(w, labelValue("Sound effects", p.SoundEffects))
	fmt.Fprintln(w, labelValue("Focus duration", fmt.Sprintf("%d min", p.FocusDuration)))
	fmt.Fprintln(w, labelValue("Break duration", fmt.Sprintf("%d min", p.BreakDuration)))
}

func newPrefsSetCmd(a *app) *cobra.Command {
	var (
		theme         string
		notifications bool
		sound         bool
		focusMinutes  int
		breakMinutes  int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences; only the given flags are updated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				prefs, err := svc.Preferences(ctx)
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("theme") {
					prefs.Theme = domain.Theme(strings.ToLower(theme))
				}
				if flags.Changed("notifications") {
					prefs.Notifications = notifications
				}
				if flags.Changed("sound") {
					prefs.SoundEffects = sound
				}
				if flags.Changed("focus") {
					prefs.FocusDuration = focusMinutes
				}
				if flags.Changed("break") {
					prefs.BreakDuration = breakMinutes
				}
				if err := svc.SavePreferences(ctx, prefs); err != nil {
					return err
				}
				writePrefs(cmd.OutOrStdout(), prefs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "Theme (light|dark|system)")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Enable notifications")
	cmd.Flags().BoolVar(&sound, "sound", true, "Enable sound effects")
	cmd.Flags().IntVar(&focusMinutes, "focus", 0, "Focus duration in minutes")
	cmd.Flags().IntVar(&breakMinutes, "break", 0, "Break duration in minutes")
	return cmd
}
