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
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/emailcheck/internal/mails"
)

func TestRewriteTestSuite(t *testing.T) {
	suite.Run(t, new(RewriteTestSuite))
}

type RewriteTestSuite struct {
	suite.Suite

	config Config
}

func (s *RewriteTestSuite) SetupTest() {
	s.config = Config{
		MailDomain:  "example.com",
		SiteMail:    "site@example.com",
		SiteReplyTo: "reply-to@example.com",
	}
}

func (s *RewriteTestSuite) rewrite(from string, headers map[string]string) *Message {
	msg := Message{
		From:    from,
		Headers: headers,
	}

	Rewrite(&msg, &s.config)
	return &msg
}

func (s *RewriteTestSuite) TestReplacingFrom() {
	msg := s.rewrite("from@other.com", nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("from@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestReplacingFromKeepsDisplayNameInReplyTo() {
	msg := s.rewrite(`"Some One" <from@other.com>`, nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal(`"Some One" <from@other.com>`, msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestReplacingFromWithExplicitReplyTo() {
	msg := s.rewrite("from@other.com", map[string]string{
		"Reply-To": "explicit-reply-to@other.com",
	})

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("explicit-reply-to@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestReplacingFromLeavesReturnPath() {
	msg := s.rewrite("from@other.com", map[string]string{
		"Return-Path": "return@other.com",
	})

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("return@other.com", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestReplacingFromWithoutMailDomain() {
	s.config.MailDomain = ""
	msg := s.rewrite("some@example.com", nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("some@example.com", msg.Headers["Reply-To"])
	s.Assert().NotContains(msg.Headers, "Return-Path")
}

func (s *RewriteTestSuite) TestNoReplacingWithoutSiteMail() {
	s.config.SiteMail = ""
	msg := s.rewrite("from@other.com", nil)

	s.Assert().Equal("from@other.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestReplyToWhenFromInMailDomain() {
	msg := s.rewrite("some@example.com", nil)

	s.Assert().Equal("some@example.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestMailDomainCaseInsensitive() {
	msg := s.rewrite("some@EXAMPLE.com", nil)

	s.Assert().Equal("some@EXAMPLE.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestNoReplacingWithoutSiteWideReplyTo() {
	s.config.SiteReplyTo = ""
	msg := s.rewrite("site@example.com", nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestNoReplacingWithExplicitReplyTo() {
	msg := s.rewrite("site@example.com", map[string]string{
		"Reply-To": "explicit-reply-to@other.com",
	})

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("explicit-reply-to@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestSetReturnPath() {
	s.config.SiteReturnPath = "bounce@example.com"
	msg := s.rewrite("some@example.com", nil)

	s.Assert().Equal("some@example.com", msg.From)
	s.Assert().Equal("bounce@example.com", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestDefaultReturnPathIsSiteMail() {
	msg := s.rewrite("some@example.com", nil)

	s.Assert().Equal("site@example.com", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestOnlyReturnPathFromMailDomain() {
	msg := s.rewrite("some@example.com", map[string]string{
		"Return-Path": "return@other.com",
	})

	s.Assert().Equal("some@example.com", msg.From)
	s.Assert().Equal("site@example.com", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestValidReturnPathPreserved() {
	msg := s.rewrite("some@example.com", map[string]string{
		"Return-Path": "<return@example.com>",
	})

	s.Assert().Equal("some@example.com", msg.From)
	s.Assert().Equal("<return@example.com>", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestNoReturnPathWhenNotMailDomain() {
	s.config.SiteReturnPath = "bounce@other.com"
	s.config.SiteMail = "site@other.com"

	msg := s.rewrite("some@example.com", map[string]string{
		"Return-Path": "return@other.com",
	})

	s.Assert().Equal("some@example.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Return-Path")
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestNoReturnPathWithoutValidDefault() {
	s.config.SiteMail = "site@other.com"
	msg := s.rewrite("some@example.com", nil)

	s.Assert().NotContains(msg.Headers, "Return-Path")
}

func (s *RewriteTestSuite) TestMultipleHeaderFromAddresses() {
	msg := s.rewrite("some@example.com, another@example.com", nil)

	s.Assert().Equal("some@example.com,another@example.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestMultipleHeaderFromAddressesFirstSiteMail() {
	msg := s.rewrite("site@example.com, another@example.com", nil)

	s.Assert().Equal("site@example.com,another@example.com", msg.From)
	s.Assert().Equal("reply-to@example.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestMultipleHeaderFromAddressesFirstOnlyInSiteDomain() {
	msg := s.rewrite("another@example.com, some@other.com", nil)

	s.Assert().Equal("another@example.com,some@other.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestMultipleHeaderFromAddressesTrailingOutsideDomain() {
	msg := s.rewrite("another@example.com, first@other.com, some@other.com", nil)

	s.Assert().Equal("another@example.com,first@other.com,some@other.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestMultipleHeaderFromAddressesPrimaryAddressOnlyEverSetsReplyTo() {
	msg := s.rewrite("veryfirst@other.com, another@example.com, some@other.com", nil)

	s.Assert().Equal("site@example.com,another@example.com,some@other.com", msg.From)
	s.Assert().Equal("veryfirst@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestReplyToWhenFromSiteMail() {
	msg := s.rewrite("site@example.com", nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("reply-to@example.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestAnyReplyToWhenFromSiteMail() {
	s.config.SiteReplyTo = "reply-to@other.com"
	msg := s.rewrite("site@example.com", nil)

	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("reply-to@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestNoReplyToWhenFromSiteDomain() {
	msg := s.rewrite("other@example.com", nil)

	s.Assert().Equal("other@example.com", msg.From)
	s.Assert().NotContains(msg.Headers, "Reply-To")
}

func (s *RewriteTestSuite) TestEmptyFromUnchanged() {
	for _, from := range []string{"", "hellö@example.com", "Name only"} {
		headers := map[string]string{"Return-Path": "return@other.com"}
		msg := s.rewrite(from, headers)

		s.Assert().Equal(from, msg.From)
		s.Assert().Equal(map[string]string{"Return-Path": "return@other.com"}, msg.Headers)
	}
}

func (s *RewriteTestSuite) TestReturnPathListReplaced() {
	msg := s.rewrite("some@example.com", map[string]string{
		"Return-Path": "bounce@example.com, evil@other.com",
	})

	s.Assert().Equal("site@example.com", msg.Headers["Return-Path"])
}

func (s *RewriteTestSuite) TestEntryCountPreserved() {
	msg := s.rewrite(`"A" <a@other.com>, Bee <b@example.com>, c@other.org`, nil)

	s.Assert().Equal("site@example.com,<b@example.com>,c@other.org", msg.From)
	s.Assert().Equal(`"A" <a@other.com>`, msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestIdempotentFrom() {
	msg := s.rewrite("veryfirst@other.com, another@example.com", nil)
	from := msg.From

	Rewrite(msg, &s.config)
	s.Assert().Equal(from, msg.From)
	s.Assert().Equal("veryfirst@other.com", msg.Headers["Reply-To"])
}

func (s *RewriteTestSuite) TestIdempotentFromWithSiteMailListed() {
	msg := s.rewrite("x@other.com, site@example.com", nil)
	s.Assert().Equal("site@example.com", msg.From)
	s.Assert().Equal("x@other.com", msg.Headers["Reply-To"])

	from := msg.From
	Rewrite(msg, &s.config)
	s.Assert().Equal(from, msg.From)
}

func (s *RewriteTestSuite) TestRewrittenFromIsStable() {
	for _, from := range []string{
		"x@other.com, site@example.com",
		"x@other.com, site@example.com, y@other.com, site@example.com",
		"some@example.com, some@example.com , another@example.com",
	} {
		msg := s.rewrite(from, nil)
		s.Assert().Equal(msg.From, mails.JoinList(mails.ParseList(msg.From)), from)
	}
}

func (s *RewriteTestSuite) TestOutcome() {
	msg := Message{From: "from@other.com"}
	outcome := Rewrite(&msg, &s.config)

	s.Assert().Equal(Outcome{
		Primary:     "from@other.com",
		Substituted: true,
		ReplyTo:     "from@other.com",
	}, outcome)

	msg = Message{
		From:    "some@example.com",
		Headers: map[string]string{"Return-Path": "return@other.com"},
	}
	outcome = Rewrite(&msg, &s.config)

	s.Assert().Equal(Outcome{
		Primary:    "some@example.com",
		ReturnPath: "site@example.com",
	}, outcome)
}
