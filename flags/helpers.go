// Copyright 2020 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp returns the bare quorum-genesis application. The launcher attaches
// flags, commands and the action.
func NewApp() *cli.App {

	app := cli.NewApp()
	app.Name = "quorum-genesis"
	app.Usage = "Build the genesis document of a quorum network"
	app.Version = "0.2.0"
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	return app

}

// AllFlags returns every flag the genesis command accepts.
func AllFlags() []cli.Flag {
	var all []cli.Flag
	all = append(all, CommonFlags()...)
	all = append(all, GenesisFlags()...)
	all = append(all, ProfileFlags()...)
	return all
}
