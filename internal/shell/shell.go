// Copyright (C) 2020  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package shell

import (
	"context"
	"errors"

	"github.com/abiosoft/ishell"
	"github.com/google/wire"

	"github.com/lukasdietrich/emailcheck/internal/log"
	"github.com/lukasdietrich/emailcheck/internal/settings"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

// WireSet provides the admin shell.
var WireSet = wire.NewSet(NewShell)

var errUsage = errors.New("wrong number of arguments")

// console is the part of an ishell context the commands interact with.
type console interface {
	Printf(format string, val ...interface{})
	ReadLineErr() (string, error)
}

// Shell is an interactive shell to manage the site mail settings.
type Shell struct {
	database *storage.Database
	settings *settings.Settings
}

// NewShell creates a new shell instance.
func NewShell(database *storage.Database, settings *settings.Settings) *Shell {
	return &Shell{
		database: database,
		settings: settings,
	}
}

// Run starts the shell read loop.
func (s *Shell) Run() error {
	shell := ishell.New()
	s.setupShell(shell)
	shell.Run()

	return nil
}

func (s *Shell) setupShell(shell *ishell.Shell) {
	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "settings",
			Help: "manage site mail settings",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list all settings",
				Func: s.wrapShellFunc("settings list", s.settingsList),
			},
			{
				Name: "set",
				Help: "store a setting",
				Func: s.wrapShellFunc("settings set", s.settingsSet),
			},
			{
				Name: "unset",
				Help: "remove a stored setting",
				Func: s.wrapShellFunc("settings unset", s.settingsUnset),
			},
		},
	))

	shell.AddCmd(&ishell.Cmd{
		Name: "replyto",
		Help: "edit the site Reply-To address",
		Func: s.wrapShellFunc("replyto", s.replyTo),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "check",
		Help: "show how a From header would be rewritten",
		Func: s.wrapShellFunc("check", s.check),
	})
}

type shellContext struct {
	context.Context
	console console
	tx      *storage.Tx
	args    []string
}

func (c *shellContext) checkArgs(min, max int) bool {
	return min <= len(c.args) && len(c.args) <= max
}

func (c *shellContext) arg(i int) string {
	return c.args[i]
}

func (c *shellContext) printf(format string, v ...interface{}) {
	c.console.Printf(format, v...)
}

func (c *shellContext) ask(prompt string) (string, error) {
	c.printf("%s: ", prompt)
	return c.console.ReadLineErr()
}

func composeShellCmd(cmd ishell.Cmd, children []*ishell.Cmd) *ishell.Cmd {
	for _, child := range children {
		cmd.AddCmd(child)
	}

	return &cmd
}

type shellFunc func(*shellContext) error

func (s *Shell) wrapShellFunc(name string, fn shellFunc) func(*ishell.Context) {
	return func(shell *ishell.Context) {
		ctx := log.WithOrigin(context.Background(), "shell")
		ctx = log.WithCommand(ctx, name)

		if err := s.execute(ctx, shell, shell.Args, fn); err != nil {
			shell.Err(err)
		}
	}
}

// execute runs fn inside a new transaction, which is only committed if fn succeeds.
func (s *Shell) execute(ctx context.Context, console console, args []string, fn shellFunc) error {
	tx, err := s.database.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer tx.RollbackWith(func() {
		log.DebugContext(ctx).Msg("command rolled back")
	})

	shellCtx := shellContext{
		Context: ctx,
		console: console,
		tx:      tx,
		args:    args,
	}

	if err := fn(&shellCtx); err != nil {
		log.WarnContext(ctx).Err(err).Msg("command failed")
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.DebugContext(ctx).Msg("command completed")
	return nil
}
