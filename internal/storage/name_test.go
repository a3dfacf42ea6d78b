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
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpoolNameSource(t *testing.T) {
	original := random
	defer func() { random = original }()

	random = rand.New(rand.NewSource(1337))
	first, err := newSpoolName()
	require.NoError(t, err)

	random = rand.New(rand.NewSource(1337))
	second, err := newSpoolName()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(first, ".eml"))
	assert.Len(t, first, 36)
}

func TestSpoolNameUnique(t *testing.T) {
	set := make(map[string]bool)

	for i := 0; i < 100; i++ {
		name, err := newSpoolName()
		require.NoError(t, err)
		assert.False(t, set[name])

		set[name] = true
	}
}
