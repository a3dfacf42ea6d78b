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
	"errors"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidAddressFormat is used for addresses without exactly one "@" sign or with
	// characters outside of the accepted set.
	ErrInvalidAddressFormat = errors.New("address: invalid format")

	// ZeroAddress is an invalid, zero value Address.
	ZeroAddress Address
)

// Address is a string of the form "local-part@domain".
type Address struct {
	raw string
	at  int
}

// Parse checks that raw is a plain address. The local-part may consist of ascii letters, digits
// and ".", "_", "+", "-" and "%". The domain consists of ascii letters, digits, "." and "-" and
// ends with a label of at least two letters.
func Parse(raw string) (Address, error) {
	at := strings.IndexByte(raw, '@')
	if at < 0 || strings.LastIndexByte(raw, '@') != at {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	if !isLocalPart(raw[:at]) || !isDomain(raw[at+1:]) {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	return Address{raw, at}, nil
}

// String returns the raw address provided to Parse.
func (a Address) String() string {
	return a.raw
}

// LocalPart returns the part left of the "@" sign (exclusive).
func (a Address) LocalPart() string {
	return a.raw[:a.at]
}

// Domain return the part right of the "@" sign (exclusive).
func (a Address) Domain() string {
	return a.raw[a.at+1:]
}

// HasDomain reports whether the domain part of a is domain. See EqualDomains.
func (a Address) HasDomain(domain string) bool {
	if a == ZeroAddress {
		return false
	}

	return EqualDomains(a.Domain(), domain)
}

func isLocalPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case isAlnum(c):
		case c == '.', c == '_', c == '+', c == '-', c == '%':
		default:
			return false
		}
	}

	return true
}

func isDomain(s string) bool {
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if len(label) == 0 {
			return false
		}

		for i := 0; i < len(label); i++ {
			if c := label[i]; !isAlnum(c) && c != '-' {
				return false
			}
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}

	for i := 0; i < len(tld); i++ {
		if !isAlpha(tld[i]) {
			return false
		}
	}

	return true
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || ('0' <= c && c <= '9')
}

// fold is a cases.Caser to fold unicode text. Folding is more or less "compatible" lowercase.
var fold = cases.Fold()

// EqualDomains compares two domains case-insensitively. Punycode and unicode representations of
// the same domain are considered equal. Empty domains are never equal.
func EqualDomains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return comparableDomain(a) == comparableDomain(b)
}

func comparableDomain(domain string) string {
	if mapped, err := DomainToUnicode(domain); err == nil {
		domain = mapped
	}

	return fold.String(domain)
}

// DomainToUnicode normalizes a punycode domain to unicode and applies the
// NFC normal form.
func DomainToUnicode(domain string) (string, error) {
	mapped, err := idna.Lookup.ToUnicode(domain)
	if err != nil {
		return domain, err
	}

	return norm.NFC.String(mapped), nil
}

// DomainToASCII transforms a unicode domain to punycode.
func DomainToASCII(domain string) (string, error) {
	mapped, err := DomainToUnicode(domain)
	if err != nil {
		return domain, err
	}

	return idna.Lookup.ToASCII(mapped)
}
