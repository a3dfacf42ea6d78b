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
	"errors"

	"github.com/lukasdietrich/emailcheck/internal/shell"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

type shellCommand struct {
	Shell    *shell.Shell
	Database *storage.Database
}

func (s *shellCommand) run(args []string) error {
	defer s.Database.Close()

	if len(args) > 0 {
		return errors.New("Usage: shell")
	}

	return s.Shell.Run()
}
