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

package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/lukasdietrich/emailcheck/internal/log"
	"github.com/lukasdietrich/emailcheck/internal/message"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

const stdio = "-"

type rewriteCommand struct {
	Filter   *message.Filter
	Fs       afero.Fs
	Database *storage.Database
}

func (r *rewriteCommand) run(args []string) error {
	defer r.closeDatabase()

	if len(args) > 2 {
		return errors.New("Usage: rewrite [INPUT [OUTPUT]]")
	}

	in, out := stdio, stdio
	if len(args) > 0 {
		in = args[0]
	}

	if len(args) > 1 {
		out = args[1]
	}

	ctx := log.WithOrigin(context.Background(), "rewrite")

	if in != stdio && out != stdio {
		return r.Filter.FilterFile(ctx, in, out)
	}

	var source io.Reader = os.Stdin
	if in != stdio {
		file, err := r.Fs.Open(in)
		if err != nil {
			return err
		}

		defer file.Close()
		source = file
	}

	if out == stdio {
		return r.Filter.Filter(ctx, source, os.Stdout)
	}

	target, err := r.Fs.Create(out)
	if err != nil {
		return err
	}

	if err := r.Filter.Filter(ctx, source, target); err != nil {
		target.Close()
		return err
	}

	return target.Close()
}

func (r *rewriteCommand) closeDatabase() {
	if err := r.Database.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close the database")
	}
}
