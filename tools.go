// +build tools

// Package tools pins the versions of the development tools used to lint and to generate the
// dependency injection code of cmd/emailcheck.
package tools

import (
	_ "github.com/google/wire/cmd/wire"
	_ "golang.org/x/lint/golint"
)
