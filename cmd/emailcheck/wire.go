// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lukasdietrich/emailcheck/internal/message"
	"github.com/lukasdietrich/emailcheck/internal/rewrite"
	"github.com/lukasdietrich/emailcheck/internal/settings"
	"github.com/lukasdietrich/emailcheck/internal/shell"
	"github.com/lukasdietrich/emailcheck/internal/storage"
)

var wireSet = wire.NewSet(
	wire.Struct(new(rewriteCommand), "*"),
	wire.Struct(new(shellCommand), "*"),

	rewrite.NewRewriter,

	storage.WireSet,
	settings.WireSet,
	message.WireSet,
	shell.WireSet,
)

func newRewriteCommand() (*rewriteCommand, error) {
	panic(wire.Build(wireSet))
}

func newShellCommand() (*shellCommand, error) {
	panic(wire.Build(wireSet))
}
