package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/models"
)

// withBoard loads the board, runs fn and prints the result.
func withBoard(rt *runtime, fn func(cmd *cobra.Command, ctrl *board.Controller, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := rt.context()
		defer cancel()

		ctrl, err := rt.controller(ctx)
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)

		if err = fn(cmd, ctrl, args); err != nil {
			return err
		}
		renderBoard(rt.out, ctrl)
		return nil
	}
}

func listCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the board",
		Args:    cobra.NoArgs,
		RunE: withBoard(rt, func(*cobra.Command, *board.Controller, []string) error {
			return nil
		}),
	}
}

func addCmd(rt *runtime) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task to a bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: withBoard(rt, func(cmd *cobra.Command, ctrl *board.Controller, args []string) error {
			return ctrl.AddTask(cmd.Context(), models.Status(status), strings.Join(args, " "))
		}),
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(models.StatusNew), "Bucket: new, inprogress or done")
	return cmd
}

func editCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [id] [title]",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: withBoard(rt, func(cmd *cobra.Command, ctrl *board.Controller, args []string) error {
			id, err := resolveID(ctrl, args[0])
			if err != nil {
				return err
			}
			if err = ctrl.StartEdit(id); err != nil {
				return err
			}
			return ctrl.SaveEdit(cmd.Context(), id, strings.Join(args[1:], " "))
		}),
	}
}

func moveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [status]",
		Short: "Move a task to another bucket",
		Args:  cobra.ExactArgs(2),
		RunE: withBoard(rt, func(cmd *cobra.Command, ctrl *board.Controller, args []string) error {
			id, err := resolveID(ctrl, args[0])
			if err != nil {
				return err
			}
			return ctrl.MoveTask(cmd.Context(), id, models.Status(args[1]))
		}),
	}
}

func deleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withBoard(rt, func(cmd *cobra.Command, ctrl *board.Controller, args []string) error {
			id, err := resolveID(ctrl, args[0])
			if err != nil {
				return err
			}
			return ctrl.DeleteTask(cmd.Context(), id)
		}),
	}
}
