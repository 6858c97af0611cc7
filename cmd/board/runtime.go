package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/app"
	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/config"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/session"
	"github.com/adanyl0v/taskboard/internal/storage"
)

// Offline tasks all belong to this owner.
const offlineOwnerID = "local"

type runtime struct {
	cfg     *config.ClientConfig
	logger  zerolog.Logger
	offline bool

	in  *bufio.Reader
	out io.Writer
}

func newRuntime(in io.Reader, out io.Writer) *runtime {
	return &runtime{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (r *runtime) init() {
	r.cfg = app.MustReadClientEnv()
	r.logger = app.NewClientLogger(r.cfg.LogLevel)
}

func (r *runtime) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.cfg.Timeout)
}

// online wires the HTTP client and the session gate around one
// session file.
func (r *runtime) online() (*client.Client, *session.Gate, error) {
	path := r.cfg.SessionFile
	if path == "" {
		var err error
		path, err = session.DefaultStorePath()
		if err != nil {
			return nil, nil, err
		}
	}

	store, err := session.OpenStore(path)
	if err != nil {
		return nil, nil, err
	}

	api := client.New(r.cfg.ServerURL, r.cfg.Timeout, store)
	gate := session.NewGate(r.logger.With().Str("component", "session").Logger(), api, store)
	return api, gate, nil
}

func (r *runtime) offlineAPI() (board.TaskAPI, error) {
	path := r.cfg.OfflineFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "taskboard", "offline.yaml")
	}

	store, err := storage.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().
		Str("path", store.Path()).
		Msg("opened offline task file")

	tasks := services.NewTaskService(r.logger.With().Str("component", "tasks").Logger(), store)
	return board.NewLocalAPI(tasks, offlineOwnerID), nil
}

// controller returns a loaded board. Online every call passes the
// session gate, so the session is refreshed as it expires.
func (r *runtime) controller(ctx context.Context) (*board.Controller, error) {
	var api board.TaskAPI
	if r.offline {
		var err error
		api, err = r.offlineAPI()
		if err != nil {
			return nil, err
		}
	} else {
		httpAPI, gate, err := r.online()
		if err != nil {
			return nil, err
		}
		if err = gate.Require(ctx); err != nil {
			return nil, err
		}
		api = gate.Authorize(httpAPI)
	}

	var confirm board.ConfirmAbandonFunc
	if r.cfg.ConfirmAbandon {
		confirm = r.confirmAbandon
	}

	ctrl := board.NewController(r.logger.With().Str("component", "board").Logger(), api, confirm)
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (r *runtime) confirmAbandon(editing models.Task, draft string) bool {
	fmt.Fprintf(r.out, "Discard unsaved title %q for %q? [y/N] ", draft, editing.Title)
	line, err := r.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *runtime) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// resolveID accepts a full task id or a unique prefix or suffix of one.
func resolveID(ctrl *board.Controller, ref string) (string, error) {
	var match string
	for _, task := range ctrl.Tasks() {
		if task.ID == ref {
			return task.ID, nil
		}
		if strings.HasPrefix(task.ID, ref) || strings.HasSuffix(task.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = task.ID
		}
	}
	if match == "" {
		return "", services.ErrTaskNotFound
	}
	return match, nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrUserPasswordMismatch):
		return "invalid email or password"
	case session.IsLoginRequired(err):
		return "login required: run `board login` or `board signup`"
	case errors.Is(err, client.ErrNetwork):
		return fmt.Sprintf("server unreachable, nothing was changed: %v", err)
	case errors.Is(err, services.ErrTaskVersionConflict):
		return "task was changed elsewhere, the board has been reloaded"
	case errors.Is(err, services.ErrTaskNotFound):
		return "task not found"
	default:
		return err.Error()
	}
}
