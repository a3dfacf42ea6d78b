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

package rewrite

import (
	"context"

	"github.com/lukasdietrich/emailcheck/internal/log"
)

// ConfigSource provides the current site mail settings.
type ConfigSource interface {
	Snapshot(context.Context) (*Config, error)
}

// Rewriter applies Rewrite using the settings of a ConfigSource. It is safe for concurrent use, as
// every call works on its own snapshot.
type Rewriter struct {
	source ConfigSource
}

// NewRewriter creates a new Rewriter.
func NewRewriter(source ConfigSource) *Rewriter {
	return &Rewriter{
		source: source,
	}
}

// Rewrite loads the current settings and rewrites msg in place. Only errors of the ConfigSource
// are returned, in which case msg is left untouched.
func (r *Rewriter) Rewrite(ctx context.Context, msg *Message) error {
	config, err := r.source.Snapshot(ctx)
	if err != nil {
		return err
	}

	outcome := Rewrite(msg, config)

	if outcome.Primary == "" {
		log.WarnContext(ctx).Msg("no valid mailbox in from, message left untouched")
		return nil
	}

	log.DebugContext(ctx).
		Str("primary", outcome.Primary).
		Bool("substituted", outcome.Substituted).
		Str("from", msg.From).
		Str("replyTo", outcome.ReplyTo).
		Str("returnPath", outcome.ReturnPath).
		Bool("returnPathRemoved", outcome.ReturnPathRemoved).
		Msg("message rewritten")

	return nil
}
