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

package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/emailcheck/internal/log"
)

func init() {
	viper.SetDefault("storage.spool.foldername", "data/spool")
	viper.SetDefault("storage.spool.memoryLimit", 1<<20) // 1 Megabyte
}

// Spool is a temporary storage for messages, that cannot be streamed directly. This is the case
// when a file is rewritten in place.
type Spool struct {
	fs          afero.Fs
	memoryLimit int64
}

// NewSpool creates a new spool on fs using configuration from viper.
//
// `storage.spool.memoryLimit` is the maximum size of data kept in memory.
// `storage.spool.foldername` is the foldername of temporary files.
func NewSpool(fs afero.Fs) (*Spool, error) {
	var (
		folderName  = viper.GetString("storage.spool.foldername")
		memoryLimit = viper.GetInt64("storage.spool.memoryLimit")
	)

	if err := fs.MkdirAll(folderName, 0700); err != nil {
		return nil, err
	}

	return &Spool{
		fs:          afero.NewBasePathFs(fs, folderName),
		memoryLimit: memoryLimit,
	}, nil
}

// Write copies all the data from r into the spool. If the total size reaches the configured
// limit, the data will be written to disk.
func (s *Spool) Write(ctx context.Context, r io.Reader) (*SpoolEntry, error) {
	memory := bytes.NewBuffer(nil)

	n, err := io.Copy(memory, io.LimitReader(r, s.memoryLimit))
	if err != nil {
		return nil, err
	}

	if n < s.memoryLimit {
		return &SpoolEntry{memory: memory}, nil
	}

	id, err := newSpoolName()
	if err != nil {
		return nil, err
	}

	file, err := s.fs.Create(id)
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx).
		Str("filename", id).
		Int64("memoryLimit", s.memoryLimit).
		Msg("spool entry exceeding size limit, evading to file")

	if _, err := io.Copy(file, io.MultiReader(memory, r)); err != nil {
		if err := file.Close(); err != nil {
			log.WarnContext(ctx).
				Str("filename", id).
				Err(err).
				Msg("could not close partial spool file")
		}

		if err := s.fs.Remove(id); err != nil {
			log.WarnContext(ctx).
				Str("filename", id).
				Err(err).
				Msg("could not remove partial spool file")
		}

		return nil, err
	}

	return &SpoolEntry{id: id, file: file, fs: s.fs}, nil
}

// SpoolEntry is a single message kept in the spool.
type SpoolEntry struct {
	memory *bytes.Buffer
	id     string
	file   afero.File
	fs     afero.Fs
}

// Release deletes the spool file, if one was written.
func (e *SpoolEntry) Release(ctx context.Context) error {
	if e.file == nil {
		return nil
	}

	log.DebugContext(ctx).
		Str("filename", e.id).
		Msg("removing spool file")

	if err := e.file.Close(); err != nil {
		return err
	}

	return e.fs.Remove(e.id)
}

// Reader returns a new reader to the full message. This seeks the start of the file and is
// therefore not safe for concurrent use.
func (e *SpoolEntry) Reader() (io.Reader, error) {
	if e.file != nil {
		if _, err := e.file.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}

		return e.file, nil
	}

	return bytes.NewReader(e.memory.Bytes()), nil
}
