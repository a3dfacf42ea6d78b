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

package mails

import (
	"strings"
)

// Mailbox is a single entry of an address list.
type Mailbox struct {
	// Raw is the entry as it is written in the list. It is either a plain address, a bracketed
	// address or a quoted display name followed by a bracketed address.
	Raw string
	// Address is the plain address of the entry.
	Address Address
}

// String returns the raw entry.
func (m Mailbox) String() string {
	return m.Raw
}

// ParseList extracts all mailboxes of a comma separated address list, as found in the "From"
// header, in order of appearance.
//
// Entries are separated by commas outside of quoted strings and angle brackets. A quote, that is
// never closed, is ordinary text. Entries, that are not a plain address and do not contain a
// bracketed address, are dropped. A display name is only kept if it is a quoted string. An entry
// identical to its predecessor is only returned once.
func ParseList(raw string) []Mailbox {
	var list []Mailbox

	for _, unit := range splitUnits(raw) {
		if mailbox, ok := parseUnit(unit); ok {
			list = append(list, mailbox)
		}
	}

	return Compact(list)
}

// Compact removes entries, that are identical to their predecessor. The list is modified in place.
func Compact(list []Mailbox) []Mailbox {
	if len(list) == 0 {
		return list
	}

	compacted := list[:1]

	for _, mailbox := range list[1:] {
		if mailbox.Raw != compacted[len(compacted)-1].Raw {
			compacted = append(compacted, mailbox)
		}
	}

	return compacted
}

// SplitList is like ParseList, but only returns the raw entries.
func SplitList(raw string) []string {
	list := ParseList(raw)
	entries := make([]string, len(list))

	for i, mailbox := range list {
		entries[i] = mailbox.Raw
	}

	return entries
}

// JoinList joins the raw entries with commas.
func JoinList(list []Mailbox) string {
	var b strings.Builder

	for i, mailbox := range list {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(mailbox.Raw)
	}

	return b.String()
}

// splitUnits splits raw at every comma outside of quoted strings and angle brackets.
func splitUnits(raw string) []string {
	var (
		units  []string
		start  int
		quoted bool
		depth  int
		stray  = findStrayQuote(raw)
	)

	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case quoted && c == '\\':
			i++

		case c == '"' && i != stray:
			quoted = !quoted

		case quoted:

		case c == '<':
			depth++

		case c == '>' && depth > 0:
			depth--

		case c == ',' && depth == 0:
			units = append(units, raw[start:i])
			start = i + 1
		}
	}

	return append(units, raw[start:])
}

// findStrayQuote returns the offset of an opening quote, that is never closed, or -1.
func findStrayQuote(s string) int {
	open := -1

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if open >= 0 {
				i++
			}

		case '"':
			if open < 0 {
				open = i
			} else {
				open = -1
			}
		}
	}

	return open
}

func parseUnit(unit string) (Mailbox, bool) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return Mailbox{}, false
	}

	open, end, addr := findBracketAddress(unit)
	if open < 0 {
		addr, err := Parse(unit)
		if err != nil {
			return Mailbox{}, false
		}

		return Mailbox{Raw: unit, Address: addr}, true
	}

	raw := unit[open : end+1]
	if isQuotedString(strings.TrimSpace(unit[:open])) {
		raw = unit[:end+1]
	}

	return Mailbox{Raw: raw, Address: addr}, true
}

// findBracketAddress returns the offsets of the first pair of angle brackets outside of quoted
// strings, that encloses a valid address.
func findBracketAddress(unit string) (int, int, Address) {
	var (
		open   = -1
		quoted bool
		stray  = findStrayQuote(unit)
	)

	for i := 0; i < len(unit); i++ {
		switch c := unit[i]; {
		case quoted && c == '\\':
			i++

		case c == '"' && i != stray:
			quoted = !quoted

		case quoted:

		case c == '<':
			open = i

		case c == '>' && open >= 0:
			if addr, err := Parse(unit[open+1 : i]); err == nil {
				return open, i, addr
			}

			open = -1
		}
	}

	return -1, -1, ZeroAddress
}

func isQuotedString(s string) bool {
	if len(s) < 2 || s[0] != '"' {
		return false
	}

	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++

		case '"':
			return i == len(s)-1
		}
	}

	return false
}
