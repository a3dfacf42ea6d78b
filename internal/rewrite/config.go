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
	"github.com/lukasdietrich/emailcheck/internal/mails"
)

// Config is a snapshot of the site mail settings used to rewrite a message.
type Config struct {
	// MailDomain is the domain all senders have to belong to. An empty domain matches nothing.
	MailDomain string
	// SiteMail is the address of the site. It replaces senders outside of the MailDomain.
	SiteMail string
	// SiteReplyTo is the Reply-To address for mails sent as SiteMail. May be empty.
	SiteReplyTo string
	// SiteReturnPath is the default Return-Path. If empty, SiteMail is used.
	SiteReturnPath string
}

// ReturnPath returns the default Return-Path address.
func (c *Config) ReturnPath() string {
	if c.SiteReturnPath != "" {
		return c.SiteReturnPath
	}

	return c.SiteMail
}

// InDomain reports whether raw is a single mailbox, that belongs to the MailDomain.
func (c *Config) InDomain(raw string) bool {
	if c.MailDomain == "" {
		return false
	}

	list := mails.ParseList(raw)
	if len(list) != 1 {
		return false
	}

	return list[0].Address.HasDomain(c.MailDomain)
}
