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
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/emailcheck/internal/rewrite"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

func TestSettingsTestSuite(t *testing.T) {
	suite.Run(t, new(SettingsTestSuite))
}

type SettingsTestSuite struct {
	suite.Suite

	ctx      context.Context
	database *storage.Database
	settings *Settings
}

func (s *SettingsTestSuite) SetupTest() {
	viper.Set("storage.database.filename", ":memory:")
	viper.Set("storage.database.journalmode", "memory")

	for _, name := range Names {
		viper.Set(viperKey(name), "")
	}

	database, err := storage.OpenDatabase()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.database = database
	s.settings = NewSettings(database)
	s.settings.now = func() time.Time {
		return time.Unix(1600000000, 0)
	}
}

func (s *SettingsTestSuite) TearDownTest() {
	s.Require().NoError(s.database.Close())
}

func (s *SettingsTestSuite) TestGetDefaultsToViper() {
	viper.Set("settings.site_mail", "configured@example.com")

	value, err := s.settings.Get(s.ctx, SiteMail)
	s.Assert().NoError(err)
	s.Assert().Equal("configured@example.com", value)
}

func (s *SettingsTestSuite) TestSetOverridesViper() {
	viper.Set("settings.site_mail", "configured@example.com")

	s.Require().NoError(s.settings.Set(s.ctx, SiteMail, "  stored@example.com "))

	value, err := s.settings.Get(s.ctx, SiteMail)
	s.Assert().NoError(err)
	s.Assert().Equal("stored@example.com", value)
}

func (s *SettingsTestSuite) TestSetTwice() {
	s.Require().NoError(s.settings.Set(s.ctx, SiteReplyTo, "first@example.com"))
	s.Require().NoError(s.settings.Set(s.ctx, SiteReplyTo, "second@example.com"))

	value, err := s.settings.Get(s.ctx, SiteReplyTo)
	s.Assert().NoError(err)
	s.Assert().Equal("second@example.com", value)
}

func (s *SettingsTestSuite) TestSetEmptyIsStored() {
	viper.Set("settings.site_replyto_mail", "configured@example.com")

	s.Require().NoError(s.settings.Set(s.ctx, SiteReplyTo, ""))

	value, err := s.settings.Get(s.ctx, SiteReplyTo)
	s.Assert().NoError(err)
	s.Assert().Equal("", value)
}

func (s *SettingsTestSuite) TestSetNormalizesMailDomain() {
	s.Require().NoError(s.settings.Set(s.ctx, MailDomain, "xn--dmin-moa0i.example"))

	value, err := s.settings.Get(s.ctx, MailDomain)
	s.Assert().NoError(err)
	s.Assert().Equal("dömäin.example", value)
}

func (s *SettingsTestSuite) TestUnknownSetting() {
	_, err := s.settings.Get(s.ctx, "site_name")
	s.Assert().True(errors.Is(err, ErrUnknownSetting))

	err = s.settings.Set(s.ctx, "site_name", "value")
	s.Assert().True(errors.Is(err, ErrUnknownSetting))

	err = s.settings.Unset(s.ctx, "site_name")
	s.Assert().True(errors.Is(err, ErrUnknownSetting))
}

func (s *SettingsTestSuite) TestUnset() {
	viper.Set("settings.site_mail", "configured@example.com")

	s.Require().NoError(s.settings.Set(s.ctx, SiteMail, "stored@example.com"))
	s.Require().NoError(s.settings.Unset(s.ctx, SiteMail))

	value, err := s.settings.Get(s.ctx, SiteMail)
	s.Assert().NoError(err)
	s.Assert().Equal("configured@example.com", value)
}

func (s *SettingsTestSuite) TestUnsetMissing() {
	s.Assert().NoError(s.settings.Unset(s.ctx, SiteMail))
}

func (s *SettingsTestSuite) TestList() {
	viper.Set("settings.site_mail_domain", "example.com")
	s.Require().NoError(s.settings.Set(s.ctx, SiteMail, "site@example.com"))

	tx, err := s.database.BeginTx(s.ctx)
	s.Require().NoError(err)

	defer tx.Rollback()

	entries, err := s.settings.ListTx(tx)
	s.Assert().NoError(err)
	s.Assert().Equal([]Entry{
		{Name: MailDomain, Value: "example.com"},
		{Name: SiteMail, Value: "site@example.com", Stored: true},
		{Name: SiteReplyTo},
		{Name: SiteReturnPath},
	}, entries)
}

func (s *SettingsTestSuite) TestStoredTimestamp() {
	s.Require().NoError(s.settings.Set(s.ctx, SiteMail, "site@example.com"))

	tx, err := s.database.BeginTx(s.ctx)
	s.Require().NoError(err)

	defer tx.Rollback()

	setting, err := findSetting(tx, SiteMail)
	s.Require().NoError(err)
	s.Assert().Equal(&Setting{
		Name:      SiteMail,
		Value:     "site@example.com",
		UpdatedAt: 1600000000,
	}, setting)
}

func (s *SettingsTestSuite) TestSnapshot() {
	viper.Set("settings.site_mail_domain", "example.com")
	viper.Set("settings.site_mail", "configured@example.com")

	s.Require().NoError(s.settings.Set(s.ctx, SiteMail, "site@example.com"))
	s.Require().NoError(s.settings.Set(s.ctx, SiteReplyTo, "reply-to@example.com"))

	config, err := s.settings.Snapshot(s.ctx)
	s.Assert().NoError(err)
	s.Assert().Equal(&rewrite.Config{
		MailDomain:  "example.com",
		SiteMail:    "site@example.com",
		SiteReplyTo: "reply-to@example.com",
	}, config)
	s.Assert().Equal("site@example.com", config.ReturnPath())
}

func (s *SettingsTestSuite) TestReplyToDefault() {
	for _, tc := range []struct {
		replyTo  string
		siteMail string
		expected string
	}{
		{"reply-to@example.com", "site@example.com", "reply-to@example.com"},
		{"", "site@example.com", "site@example.com"},
		{"", "", "admin@localhost"},
	} {
		viper.Set("settings.site_replyto_mail", tc.replyTo)
		viper.Set("settings.site_mail", tc.siteMail)

		tx, err := s.database.BeginTx(s.ctx)
		s.Require().NoError(err)

		actual, err := s.settings.ReplyToDefaultTx(tx)
		s.Assert().NoError(err)
		s.Assert().Equal(tc.expected, actual)

		s.Require().NoError(tx.Rollback())
	}
}

func (s *SettingsTestSuite) TestImplementsConfigSource() {
	var source rewrite.ConfigSource = s.settings
	s.Assert().NotNil(source)
}
