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

package settings

import (
	"database/sql"

	"github.com/lukasdietrich/emailcheck/internal/storage"
)

// Setting is the entity for the "settings" table.
type Setting struct {
	Name      string `db:"name"`
	Value     string `db:"value"`
	UpdatedAt int64  `db:"updated_at"`
}

func findSetting(tx *storage.Tx, name string) (*Setting, error) {
	const query = `
		select *
		from "settings"
		where "name" = $1
		limit 1 ;
	`

	var setting Setting
	if err := tx.Get(&setting, query, name); err != nil {
		return nil, err
	}

	return &setting, nil
}

func findSettings(tx *storage.Tx) ([]Setting, error) {
	const query = `
		select *
		from "settings"
		order by "name" asc ;
	`

	var settingSlice []Setting
	return settingSlice, tx.Select(&settingSlice, query)
}

func upsertSetting(tx *storage.Tx, setting *Setting) error {
	const query = `
		insert into "settings" ( "name", "value", "updated_at" )
		values ( :name, :value, :updated_at )
		on conflict ( "name" ) do update
		set "value" = excluded."value" ,
			"updated_at" = excluded."updated_at" ;
	`

	_, err := tx.NamedExec(query, setting)
	return err
}

func deleteSetting(tx *storage.Tx, name string) error {
	const query = `
		delete from "settings"
		where "name" = $1 ;
	`

	result, err := tx.Exec(query, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
