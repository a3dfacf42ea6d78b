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

package message

import (
	"bufio"
	"context"
	"io"
	nettextproto "net/textproto"

	"github.com/emersion/go-message/textproto"
	"github.com/google/wire"
	"github.com/spf13/afero"

	"github.com/lukasdietrich/emailcheck/internal/log"
	"github.com/lukasdietrich/emailcheck/internal/rewrite"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

const headerFrom = "From"

// WireSet provides the Filter using a *rewrite.Rewriter.
var WireSet = wire.NewSet(
	NewFilter,
	wire.Bind(new(Rewriter), new(*rewrite.Rewriter)),
)

// Rewriter rewrites a single message.
type Rewriter interface {
	Rewrite(context.Context, *rewrite.Message) error
}

// Filter applies a Rewriter to RFC 5322 formatted mails. Only the header fields From, Reply-To
// and Return-Path are modified. The body is copied as is.
type Filter struct {
	fs       afero.Fs
	spool    *storage.Spool
	rewriter Rewriter
}

// NewFilter creates a new Filter.
func NewFilter(fs afero.Fs, spool *storage.Spool, rewriter Rewriter) *Filter {
	return &Filter{
		fs:       fs,
		spool:    spool,
		rewriter: rewriter,
	}
}

// Filter reads a mail from r and writes the rewritten mail to w.
func (f *Filter) Filter(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)

	header, err := f.readHeader(ctx, br)
	if err != nil {
		return err
	}

	return writeMail(w, header, br)
}

// readHeader reads and rewrites the header block. br is left positioned at the start of the body.
func (f *Filter) readHeader(ctx context.Context, br *bufio.Reader) (textproto.Header, error) {
	header, err := textproto.ReadHeader(br)
	if err != nil {
		return header, err
	}

	if messageID := header.Get("Message-Id"); messageID != "" {
		ctx = log.WithMail(ctx, messageID)
	}

	return header, f.rewriteHeader(ctx, &header)
}

func writeMail(w io.Writer, header textproto.Header, body io.Reader) error {
	if err := textproto.WriteHeader(w, header); err != nil {
		return err
	}

	_, err := io.Copy(w, body)
	return err
}

func (f *Filter) rewriteHeader(ctx context.Context, header *textproto.Header) error {
	msg := rewrite.Message{
		From:    header.Get(headerFrom),
		Headers: headerMap(header),
	}

	if err := f.rewriter.Rewrite(ctx, &msg); err != nil {
		return err
	}

	if msg.From != header.Get(headerFrom) {
		header.Set(headerFrom, msg.From)
	}

	for _, key := range []string{rewrite.HeaderReplyTo, rewrite.HeaderReturnPath} {
		if value, ok := msg.Headers[key]; ok {
			if value != header.Get(key) {
				header.Set(key, value)
			}
		} else {
			header.Del(key)
		}
	}

	return nil
}

// headerMap maps the first value of every field by its canonical key.
func headerMap(header *textproto.Header) map[string]string {
	m := make(map[string]string, header.Len())

	for fields := header.Fields(); fields.Next(); {
		key := nettextproto.CanonicalMIMEHeaderKey(fields.Key())

		if _, ok := m[key]; !ok {
			m[key] = fields.Value()
		}
	}

	return m
}

// FilterFile rewrites the mail stored in the file named in and writes the result to the file
// named out. Both may be the same file. The mail is spooled and its header rewritten before out
// is created, so a failed rewrite leaves out untouched.
func (f *Filter) FilterFile(ctx context.Context, in, out string) error {
	ctx = log.WithMail(ctx, in)

	source, err := f.fs.Open(in)
	if err != nil {
		return err
	}

	defer source.Close()

	entry, err := f.spool.Write(ctx, source)
	if err != nil {
		return err
	}

	defer func() {
		if err := entry.Release(ctx); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not release spool entry")
		}
	}()

	if err := source.Close(); err != nil {
		return err
	}

	r, err := entry.Reader()
	if err != nil {
		return err
	}

	br := bufio.NewReader(r)

	header, err := f.readHeader(ctx, br)
	if err != nil {
		return err
	}

	target, err := f.fs.Create(out)
	if err != nil {
		return err
	}

	if err := writeMail(target, header, br); err != nil {
		target.Close()
		return err
	}

	log.InfoContext(ctx).
		Str("target", out).
		Msg("mail rewritten")

	return target.Close()
}
