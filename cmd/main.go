package cmd

import (
	"github.com/google/subcommands"
)

// Commands lists the folio subcommands, by group.
var Commands = map[string][]subcommands.Command{
	"assets": {
		&addCmd{},
		&editCmd{},
		&removeCmd{},
		&listCmd{},
		&analyticsCmd{},
	},
	"prices": {
		&refreshCmd{},
		&pricesCmd{},
		&lookupCmd{},
	},
	"funds": {
		&holdingsCmd{},
		&lookthroughCmd{},
	},
	"state": {
		&initCmd{},
		&exportCmd{},
		&importCmd{},
		&clearCmd{},
	},
	"server": {
		&serveCmd{},
	},
	"assistant": {
		&adviceCmd{},
		&assistCmd{},
	},
	"help": {
		&topicCmd{},
	},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}
