package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/models"
)

const shortIDLength = 8

var bucketColors = map[models.Status]*color.Color{
	models.StatusNew:        color.New(color.FgCyan, color.Bold),
	models.StatusInProgress: color.New(color.FgYellow, color.Bold),
	models.StatusDone:       color.New(color.FgGreen, color.Bold),
}

func renderBoard(w io.Writer, ctrl *board.Controller) {
	editingID, draft, editing := ctrl.Editing()

	for i, bucket := range ctrl.Buckets() {
		if i > 0 {
			fmt.Fprintln(w)
		}

		header := fmt.Sprintf("%s (Total: %d tasks)", bucket.Title, bucket.Count)
		if c, ok := bucketColors[bucket.Status]; ok {
			c.Fprintln(w, header)
		} else {
			fmt.Fprintln(w, header)
		}

		for _, task := range bucket.Tasks {
			if editing && task.ID == editingID {
				fmt.Fprintf(w, "* %s  %s\n", shortID(task.ID), draft)
				continue
			}
			fmt.Fprintf(w, "  %s  %s\n", shortID(task.ID), task.Title)
		}
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[len(id)-shortIDLength:]
}
