package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shrikantlala24/flow-habit-alchemy/domain"
	"github.com/Shrikantlala24/flow-habit-alchemy/progression"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskDoneCmd(a),
		newTaskUndoCmd(a),
		newTaskRmCmd(a),
		newTaskSubtaskCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		description string
		category    string
		priority    string
		frequency   string
		due         string
		reminder    string
		subtasks    []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := domain.Task{
				Title:        strings.Join(args, " "),
				Description:  description,
				Category:     domain.Category(strings.ToLower(category)),
				Priority:     domain.Priority(strings.ToLower(priority)),
				Frequency:    domain.Frequency(strings.ToLower(frequency)),
				ReminderTime: reminder,
			}
			if due != "" {
				d, err := time.ParseInLocation(time.DateOnly, due, a.cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid --due %q: expected YYYY-MM-DD", due)
				}
				task.DueDate = &d
			}
			for _, title := range subtasks {
				task.Subtasks = append(task.Subtasks, domain.Subtask{Title: title})
			}
			return a.withService(cmd.Context(), func(svc *progression.Service) error {
				saved, err := svc.SaveTask(cmd.Context(), task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", goodStyle.Render("➕ added"), mutedStyle.Render(shortID(saved.ID)), saved.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "D", "", "Task description (markdown)")
	cmd.Flags().StringVarP(&category, "category", "c", string(domain.CategoryPersonal), "Category (work|personal|health|finance|education|other)")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(domain.PriorityMedium), "Priority (low|medium|high)")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", string(domain.FrequencyOnce), "Frequency (daily|weekly|monthly|once)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reminder, "reminder", "", "Reminder time (HH:MM)")
	cmd.Flags().StringArrayVarP(&subtasks, "subtask", "s", nil, "Subtask title (repeatable)")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var all, done bool
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *progression.Service) error {
				tasks, err := svc.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				var shown []domain.Task
				for _, t := range tasks {
					if category != "" && string(t.Category) != strings.ToLower(category) {
						continue
					}
					if !all && t.Completed != done {
						continue
					}
					shown = append(shown, t)
				}
				sort.SliceStable(shown, func(i, j int) bool { return shown[i].CreatedAt.Before(shown[j].CreatedAt) })
				writeTaskList(cmd.OutOrStdout(), shown)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().BoolVar(&done, "done", false, "Only completed tasks")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only tasks of this category")
	return cmd
}

func writeTaskList(w io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no tasks"))
		return
	}
	for _, t := range tasks {
		mark := iconOpen
		if t.Completed {
			mark = iconDone
		}
		line := fmt.Sprintf("%s %s %s %s %s", mark, mutedStyle.Render(shortID(t.ID)), t.Title,
			mutedStyle.Render("["+string(t.Category)+"]"), priorityText(t.Priority))
		if n := len(t.Subtasks); n > 0 {
			line += mutedStyle.Render(fmt.Sprintf(" (%d/%d)", t.CompletedSubtasks(), n))
		}
		if t.DueDate != nil {
			line += mutedStyle.Render(" due " + t.DueDate.Format(time.DateOnly))
		}
		fmt.Fprintln(w, line)
	}
}

func newTaskShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its description and subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *progression.Service) error {
				t, err := findTask(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(taskMarkdown(t)))
				return nil
			})
		},
	}
}

func taskMarkdown(t domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "`%s` · %s · %s priority · %s\n\n", t.ID, t.Category, t.Priority, t.Frequency)
	if t.Completed && t.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed %s\n\n", t.CompletedAt.Format(time.RFC1123))
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, "Due %s", t.DueDate.Format(time.DateOnly))
		if t.ReminderTime != "" {
			fmt.Fprintf(&b, ", reminder at %s", t.ReminderTime)
		}
		b.WriteString("\n\n")
	}
	if t.Description != "" {
		b.WriteString(t.Description + "\n\n")
	}
	if len(t.Subtasks) > 0 {
		b.WriteString("## Subtasks\n\n")
		for i, s := range t.Subtasks {
			mark := " "
			if s.Completed {
				mark = "x"
			}
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, mark, s.Title)
		}
	}
	return b.String()
}

func newTaskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task and collect experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				t, err := findTask(ctx, svc, args[0])
				if err != nil {
					return err
				}
				res, err := svc.CompleteTask(ctx, t.ID)
				if err != nil {
					return err
				}
				writeCompletion(cmd.OutOrStdout(), t, res)
				return nil
			})
		},
	}
}

func writeCompletion(w io.Writer, t domain.Task, res progression.CompleteResult) {
	if res.AlreadyCompleted {
		fmt.Fprintf(w, "%s %s\n", mutedStyle.Render("already completed:"), t.Title)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", iconDone, t.Title, goldStyle.Render(fmt.Sprintf("+%d XP", res.XPAwarded)))
	if res.LevelUp {
		fmt.Fprintf(w, "%s reached level %d\n", levelUpBadge, res.LevelAfter)
	}
	for _, id := range res.Unlocked {
		if def, ok := domain.LookupAchievement(id); ok {
			fmt.Fprintf(w, "%s %s %s\n", def.Icon, goodStyle.Render("Achievement unlocked:"), def.Title)
		}
	}
	s := res.Stats
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("level %d · %d/%d XP · %s %d day streak",
		s.Level, s.Experience, s.ExperienceToNextLevel, iconFire, s.Streak.Current)))
}

func newTaskUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <id>",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				t, err := findTask(ctx, svc, args[0])
				if err != nil {
					return err
				}
				if _, err := svc.UncompleteTask(ctx, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", iconOpen, t.Title)
				return nil
			})
		},
	}
}

func newTaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				t, err := findTask(ctx, svc, args[0])
				if err != nil {
					return err
				}
				if _, err := svc.DeleteTask(ctx, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mutedStyle.Render("deleted"), t.Title)
				return nil
			})
		},
	}
}

func newTaskSubtaskCmd(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "subtask <task-id> <subtask-number|id>",
		Short: "Mark a subtask done (or open again with --undo)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *progression.Service) error {
				t, err := findTask(ctx, svc, args[0])
				if err != nil {
					return err
				}
				sub, err := findSubtask(t, args[1])
				if err != nil {
					return err
				}
				if _, err := svc.ToggleSubtask(ctx, t.ID, sub.ID, !undo); err != nil {
					return err
				}
				mark := iconDone
				if undo {
					mark = iconOpen
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", mark, sub.Title, mutedStyle.Render("("+t.Title+")"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark the subtask as not done")
	return cmd
}

// findTask resolves ref as a full id or an unambiguous id prefix.
func findTask(ctx context.Context, svc *progression.Service, ref string) (domain.Task, error) {
	tasks, err := svc.Tasks(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	var matches []domain.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Task{}, fmt.Errorf("task %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// findSubtask accepts the 1-based position shown by `task show` or an id prefix.
func findSubtask(t domain.Task, ref string) (domain.Subtask, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(t.Subtasks) {
		return t.Subtasks[n-1], nil
	}
	for _, s := range t.Subtasks {
		if s.ID == ref || strings.HasPrefix(s.ID, ref) {
			return s, nil
		}
	}
	return domain.Subtask{}, fmt.Errorf("subtask %q not found in %q", ref, t.Title)
}
