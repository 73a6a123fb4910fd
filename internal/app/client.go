package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/authgate/internal/authflow/inbound"
)

// Client commands.
const (
	CmdLogin  = "login"
	CmdStatus = "status"
	CmdLogout = "logout"
)

// ErrUnknownCommand is returned by Run for a command it does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// Run executes one client command. An interrupt cancels a running login.
func (a *App) Run(cmd string) error {
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := a.client.Terminal

	switch cmd {
	case CmdLogin:
		err := term.Run(ctx)
		if errors.Is(err, inbound.ErrQuit) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err

	case CmdStatus:
		term.Status()
		return nil

	case CmdLogout:
		return term.Logout(ctx)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}
