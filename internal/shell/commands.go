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
	"fmt"
	"strings"

	"github.com/lukasdietrich/emailcheck/internal/mails"
	"github.com/lukasdietrich/emailcheck/internal/rewrite"
	"github.com/lukasdietrich/emailcheck/internal/settings"
)

func (s *Shell) settingsList(ctx *shellContext) error {
	if !ctx.checkArgs(0, 0) {
		return fmt.Errorf("%w. Usage: settings list", errUsage)
	}

	entries, err := s.settings.ListTx(ctx.tx)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Settings:\n", len(entries))
	for _, entry := range entries {
		source := "config"
		if entry.Stored {
			source = "stored"
		}

		ctx.printf("\t%-22s %-6s %q", entry.Name, source, entry.Value)

		if entry.Name == settings.MailDomain && entry.Value != "" {
			if ascii, err := mails.DomainToASCII(entry.Value); err == nil && ascii != entry.Value {
				ctx.printf(" (%s)", ascii)
			}
		}

		ctx.printf("\n")
	}
	ctx.printf("\n")

	return nil
}

func (s *Shell) settingsSet(ctx *shellContext) error {
	if !ctx.checkArgs(1, 2) {
		return fmt.Errorf("%w. Usage: settings set NAME [VALUE]", errUsage)
	}

	var (
		name  = ctx.arg(0)
		value string
		err   error
	)

	if len(ctx.args) == 2 {
		value = ctx.arg(1)
	} else if value, err = ctx.ask("Value"); err != nil {
		return err
	}

	if err := s.settings.SetTx(ctx.tx, name, value); err != nil {
		return err
	}

	ctx.printf("\n\tSetting %q stored.\n\n", name)
	return nil
}

func (s *Shell) settingsUnset(ctx *shellContext) error {
	if !ctx.checkArgs(1, 1) {
		return fmt.Errorf("%w. Usage: settings unset NAME", errUsage)
	}

	name := ctx.arg(0)

	if err := s.settings.UnsetTx(ctx.tx, name); err != nil {
		return err
	}

	ctx.printf("\n\tSetting %q removed.\n\n", name)
	return nil
}

// replyTo edits the site Reply-To address. The prompt suggests the current value, falling back
// to the site mail. An empty answer keeps the suggestion.
func (s *Shell) replyTo(ctx *shellContext) error {
	if !ctx.checkArgs(0, 0) {
		return fmt.Errorf("%w. Usage: replyto", errUsage)
	}

	suggestion, err := s.settings.ReplyToDefaultTx(ctx.tx)
	if err != nil {
		return err
	}

	ctx.printf("\nReplies to mails sent as the site mail address go to this address.\n")

	answer, err := ctx.ask(fmt.Sprintf("Reply-To [%s]", suggestion))
	if err != nil {
		return err
	}

	if answer = strings.TrimSpace(answer); answer == "" {
		answer = suggestion
	}

	if err := s.settings.SetTx(ctx.tx, settings.SiteReplyTo, answer); err != nil {
		return err
	}

	ctx.printf("\n\tReply-To set to %q.\n\n", answer)
	return nil
}

// check rewrites a From value with the current settings and prints the result.
func (s *Shell) check(ctx *shellContext) error {
	if len(ctx.args) == 0 {
		return fmt.Errorf("%w. Usage: check FROM", errUsage)
	}

	config, err := s.settings.SnapshotTx(ctx.tx)
	if err != nil {
		return err
	}

	msg := rewrite.Message{
		From: strings.Join(ctx.args, " "),
	}

	if outcome := rewrite.Rewrite(&msg, config); outcome.Primary == "" {
		ctx.printf("\n\tNo valid mailbox in %q.\n\n", msg.From)
		return nil
	}

	ctx.printf("\n\tFrom:        %s\n", msg.From)
	ctx.printf("\tReply-To:    %s\n", headerOrNone(msg.Headers, rewrite.HeaderReplyTo))
	ctx.printf("\tReturn-Path: %s\n\n", headerOrNone(msg.Headers, rewrite.HeaderReturnPath))

	return nil
}

func headerOrNone(headers map[string]string, key string) string {
	if value, ok := headers[key]; ok {
		return value
	}

	return "(none)"
}
