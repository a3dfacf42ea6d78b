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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/emailcheck/internal/log"
)

const usageText = `
Usage:
  emailcheck [OPTIONS] COMMAND

  Rewrite From, Reply-To and Return-Path of outgoing mails to fit the site mail domain.

Version:
  %s

Commands:
  rewrite [INPUT [OUTPUT]]  Rewrite a mail. A missing file or "-" is stdin/stdout
  shell                     Start an interactive administration shell

Options:
%s
`

var (
	// Version is set at compile-time.
	Version string
)

func main() {
	var configFilename string

	flags := pflag.NewFlagSet("emailcheck", pflag.ContinueOnError)
	flags.StringVarP(&configFilename, "config", "c", "", "Path to a configuration file")
	flags.Usage = printUsage(flags)

	if err := flags.Parse(os.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}

		log.Fatal().Err(err).Msg("could not parse flags")
	}

	switch commandName := flags.Arg(1); commandName {
	case "rewrite", "shell":
		setupConfig(configFilename)
		setupLogger()
		printConfig()
		runCommand(commandName, flags.Args()[2:])
	default:
		flags.Usage()
	}
}

type command interface {
	run(args []string) error
}

func runCommand(commandName string, args []string) {
	var (
		cmd command
		err error
	)

	switch commandName {
	case "rewrite":
		cmd, err = newRewriteCommand()
	case "shell":
		cmd, err = newShellCommand()
	}

	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the application")
	}

	if err := cmd.run(args); err != nil {
		log.Fatal().Err(err).Str("command", commandName).Msg("command failed")
	}
}

func printUsage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, usageText,
			Version,
			flags.FlagUsages())
	}
}

func setupLogger() {
	if err := log.SetupLevel(); err != nil {
		log.Fatal().Err(err).Msg("unknown log level")
	}

	log.Debug().Str("level", viper.GetString("log.level")).Msg("log level set")
}

func setupConfig(filename string) {
	viper.SetTypeByDefaultValue(true)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("EMAILCHECK")

	if filename != "" {
		readConfig(filename)
	} else {
		log.Debug().Msg("no config file provided. using environment only")
	}
}

func readConfig(filename string) {
	log.Debug().Str("filename", filename).Msg("loading configuration")
	viper.SetConfigFile(filename)

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Err(err).Msg("configuration file missing")
		} else {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
	}
}

func printConfig() {
	keys := viper.AllKeys()
	sort.Strings(keys)

	for _, key := range keys {
		v, _ := json.Marshal(viper.Get(key))
		log.Trace().RawJSON(key, v).Msg("config")
	}
}
