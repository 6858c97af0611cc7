package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/models"
)

const shellHelp = `Commands:
  list                      show the board
  add <status> <title>      add a task to a bucket
  edit <id>                 open a task for editing
  title <text>              change the draft title of the open task
  save                      save the open task
  cancel                    close the open task without saving
  move <id> <status>        move a task to another bucket
  delete <id>               delete a task
  reload                    fetch the board again
  quit                      leave the shell`

var errQuit = errors.New("quit")

func shellCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Work on the board interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rt.context()
			ctrl, err := rt.controller(ctx)
			cancel()
			if err != nil {
				return err
			}

			renderBoard(rt.out, ctrl)
			for {
				fmt.Fprint(rt.out, "> ")
				line, err := rt.readLine()
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				if line == "" {
					continue
				}

				err = runShellLine(rt, ctrl, line)
				if errors.Is(err, errQuit) {
					return nil
				}
				if err != nil {
					fmt.Fprintln(rt.out, describeError(err))
				}
			}
		},
	}
}

func runShellLine(rt *runtime, ctrl *board.Controller, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	ctx, cancel := rt.context()
	defer cancel()

	var err error
	switch name {
	case "list", "ls":
	case "help":
		fmt.Fprintln(rt.out, shellHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "reload":
		err = ctrl.Load(ctx)
	case "add":
		if len(args) < 2 {
			return errors.New("usage: add <status> <title>")
		}
		err = ctrl.AddTask(ctx, models.Status(args[0]), strings.Join(args[1:], " "))
	case "edit":
		if len(args) != 1 {
			return errors.New("usage: edit <id>")
		}
		var id string
		if id, err = resolveID(ctrl, args[0]); err == nil {
			err = ctrl.StartEdit(id)
		}
	case "title":
		err = ctrl.SetDraft(strings.Join(args, " "))
	case "save":
		id, draft, ok := ctrl.Editing()
		if !ok {
			return board.ErrNotEditing
		}
		err = ctrl.SaveEdit(ctx, id, draft)
	case "cancel":
		ctrl.CancelEdit()
	case "move":
		if len(args) != 2 {
			return errors.New("usage: move <id> <status>")
		}
		var id string
		if id, err = resolveID(ctrl, args[0]); err == nil {
			err = ctrl.MoveTask(ctx, id, models.Status(args[1]))
		}
	case "delete", "rm":
		if len(args) != 1 {
			return errors.New("usage: delete <id>")
		}
		var id string
		if id, err = resolveID(ctrl, args[0]); err == nil {
			err = ctrl.DeleteTask(ctx, id)
		}
	default:
		return fmt.Errorf("unknown command %q, try help", name)
	}
	if err != nil {
		return err
	}

	renderBoard(rt.out, ctrl)
	return nil
}
