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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/emailcheck/internal/log"
	"github.com/lukasdietrich/emailcheck/internal/mails"
	"github.com/lukasdietrich/emailcheck/internal/rewrite"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

// Names of the known settings.
const (
	MailDomain     = "site_mail_domain"
	SiteMail       = "site_mail"
	SiteReplyTo    = "site_replyto_mail"
	SiteReturnPath = "site_mail_return_path"
)

// fallbackReplyTo is suggested as the Reply-To address if neither Reply-To nor the site mail are
// configured.
const fallbackReplyTo = "admin@localhost"

var (
	// Names lists all known settings.
	Names = []string{MailDomain, SiteMail, SiteReplyTo, SiteReturnPath}

	// ErrUnknownSetting is returned for names not contained in Names.
	ErrUnknownSetting = errors.New("settings: unknown setting")
)

// WireSet provides Settings as the rewrite.ConfigSource.
var WireSet = wire.NewSet(
	NewSettings,
	wire.Bind(new(rewrite.ConfigSource), new(*Settings)),
)

func init() {
	for _, name := range Names {
		viper.SetDefault(viperKey(name), "")
	}
}

func viperKey(name string) string {
	return "settings." + name
}

// Entry is the effective value of a setting.
type Entry struct {
	Name  string
	Value string
	// Stored indicates if the value is stored in the database. Otherwise it is the value
	// configured as `settings.<name>`.
	Stored bool
}

// Settings stores the site mail settings. Values stored in the database take precedence over the
// configuration provided by viper.
type Settings struct {
	database *storage.Database
	now      func() time.Time
}

// NewSettings creates a new Settings store.
func NewSettings(database *storage.Database) *Settings {
	return &Settings{
		database: database,
		now:      time.Now,
	}
}

// Get returns the effective value of a setting in a new transaction. See GetTx.
func (s *Settings) Get(ctx context.Context, name string) (string, error) {
	var value string

	err := s.withTx(ctx, func(tx *storage.Tx) (err error) {
		value, err = s.GetTx(tx, name)
		return
	})

	return value, err
}

// GetTx returns the effective value of a setting.
func (s *Settings) GetTx(tx *storage.Tx, name string) (string, error) {
	entry, err := s.lookup(tx, name)
	if err != nil {
		return "", err
	}

	return entry.Value, nil
}

// Set stores a setting in a new transaction. See SetTx.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	return s.withTx(ctx, func(tx *storage.Tx) error {
		return s.SetTx(tx, name, value)
	})
}

// SetTx stores a setting. Surrounding whitespace is removed and the mail domain is normalized to
// its unicode form.
func (s *Settings) SetTx(tx *storage.Tx, name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}

	value = strings.TrimSpace(value)

	if name == MailDomain && value != "" {
		normalized, err := mails.DomainToUnicode(value)
		if err != nil {
			return fmt.Errorf("could not normalize domain %q: %w", value, err)
		}

		value = normalized
	}

	setting := Setting{
		Name:      name,
		Value:     value,
		UpdatedAt: s.now().Unix(),
	}

	if err := upsertSetting(tx, &setting); err != nil {
		return fmt.Errorf("could not store setting %q: %w", name, err)
	}

	return nil
}

// Unset removes a stored setting in a new transaction. See UnsetTx.
func (s *Settings) Unset(ctx context.Context, name string) error {
	return s.withTx(ctx, func(tx *storage.Tx) error {
		return s.UnsetTx(tx, name)
	})
}

// UnsetTx removes a stored setting, so that the configured value applies again. Removing a
// setting, that is not stored, is not an error.
func (s *Settings) UnsetTx(tx *storage.Tx, name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	if err := deleteSetting(tx, name); err != nil && !storage.IsErrNoRows(err) {
		return fmt.Errorf("could not delete setting %q: %w", name, err)
	}

	return nil
}

// ListTx returns all known settings in the order of Names.
func (s *Settings) ListTx(tx *storage.Tx) ([]Entry, error) {
	stored, err := findSettings(tx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(stored))
	for _, setting := range stored {
		values[setting.Name] = setting.Value
	}

	entries := make([]Entry, len(Names))
	for i, name := range Names {
		value, ok := values[name]
		if !ok {
			value = viper.GetString(viperKey(name))
		}

		entries[i] = Entry{Name: name, Value: value, Stored: ok}
	}

	return entries, nil
}

// Snapshot implements rewrite.ConfigSource.
func (s *Settings) Snapshot(ctx context.Context) (*rewrite.Config, error) {
	var config *rewrite.Config

	err := s.withTx(ctx, func(tx *storage.Tx) (err error) {
		config, err = s.SnapshotTx(tx)
		return
	})

	return config, err
}

// SnapshotTx reads all settings into a rewrite.Config.
func (s *Settings) SnapshotTx(tx *storage.Tx) (*rewrite.Config, error) {
	entries, err := s.ListTx(tx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.Name] = entry.Value
	}

	return &rewrite.Config{
		MailDomain:     values[MailDomain],
		SiteMail:       values[SiteMail],
		SiteReplyTo:    values[SiteReplyTo],
		SiteReturnPath: values[SiteReturnPath],
	}, nil
}

// ReplyToDefaultTx returns the value suggested when editing the Reply-To address: the current
// Reply-To, the site mail or "admin@localhost".
func (s *Settings) ReplyToDefaultTx(tx *storage.Tx) (string, error) {
	for _, name := range []string{SiteReplyTo, SiteMail} {
		value, err := s.GetTx(tx, name)
		if err != nil {
			return "", err
		}

		if value != "" {
			return value, nil
		}
	}

	return fallbackReplyTo, nil
}

func (s *Settings) lookup(tx *storage.Tx, name string) (*Entry, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	setting, err := findSetting(tx, name)
	if err != nil {
		if storage.IsErrNoRows(err) {
			return &Entry{Name: name, Value: viper.GetString(viperKey(name))}, nil
		}

		return nil, err
	}

	return &Entry{Name: name, Value: setting.Value, Stored: true}, nil
}

func (s *Settings) withTx(ctx context.Context, fn func(*storage.Tx) error) error {
	tx, err := s.database.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := fn(tx); err != nil {
		log.DebugContext(ctx).Err(err).Msg("settings transaction rolled back")
		return err
	}

	return tx.Commit()
}

func checkName(name string) error {
	for _, known := range Names {
		if name == known {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownSetting, name)
}
