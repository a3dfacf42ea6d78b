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

// Header names touched by Rewrite.
const (
	HeaderReplyTo    = "Reply-To"
	HeaderReturnPath = "Return-Path"
)

// Message is an outgoing mail as handed over by the host before dispatch.
type Message struct {
	// From is a comma separated list of mailboxes.
	From string
	// Headers maps header names to their values.
	Headers map[string]string
}

// Outcome describes what Rewrite did to a message.
type Outcome struct {
	// Primary is the first mailbox of the original From list. It is empty if From did not contain
	// any valid mailbox, in which case nothing was changed.
	Primary string
	// Substituted indicates that Primary was replaced with the site mail address.
	Substituted bool
	// ReplyTo is the Reply-To value set by Rewrite, or empty.
	ReplyTo string
	// ReturnPath is the Return-Path value after Rewrite, or empty.
	ReturnPath string
	// ReturnPathRemoved indicates, that an out of domain Return-Path was dropped.
	ReturnPathRemoved bool
}

// Rewrite applies the site mail policy to msg:
//
// If the primary (first) From address does not belong to the mail domain, it is replaced with
// the site mail address and the original address becomes the Reply-To. Otherwise From stays as it
// is. If the primary address is the site mail address, the site Reply-To is used. A Reply-To set
// by the caller is never replaced.
//
// If From is not replaced, the Return-Path has to belong to the mail domain. An invalid
// Return-Path is replaced by the configured default or dropped, if that is invalid as well.
func Rewrite(msg *Message, config *Config) Outcome {
	var outcome Outcome

	list := mails.ParseList(msg.From)
	if len(list) == 0 {
		return outcome
	}

	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}

	primary := list[0]
	outcome.Primary = primary.Raw

	if config.SiteMail != "" && !primary.Address.HasDomain(config.MailDomain) {
		list[0] = mails.Mailbox{Raw: config.SiteMail}
		outcome.Substituted = true
		outcome.ReplyTo = setDefault(msg.Headers, HeaderReplyTo, primary.Raw)
	} else {
		if primary.Address.String() == config.SiteMail && config.SiteReplyTo != "" {
			outcome.ReplyTo = setDefault(msg.Headers, HeaderReplyTo, config.SiteReplyTo)
		}

		outcome.ReturnPath, outcome.ReturnPathRemoved = rewriteReturnPath(msg.Headers, config)
	}

	msg.From = mails.JoinList(mails.Compact(list))
	return outcome
}

// setDefault sets the header, unless it is already present. The value set is returned.
func setDefault(headers map[string]string, key, value string) string {
	if _, ok := headers[key]; ok {
		return ""
	}

	headers[key] = value
	return value
}

func rewriteReturnPath(headers map[string]string, config *Config) (string, bool) {
	current, ok := headers[HeaderReturnPath]
	if ok && config.InDomain(current) {
		return current, false
	}

	if fallback := config.ReturnPath(); config.InDomain(fallback) {
		headers[HeaderReturnPath] = fallback
		return fallback, false
	}

	delete(headers, HeaderReturnPath)
	return "", ok
}
