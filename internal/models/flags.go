/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package models

import (
	"github.com/spf13/pflag"
)

// FlagStruct declares a string flag, so commands can set a group of them in
// a loop.
type FlagStruct struct {
	Label        string
	Short        string
	Description  string
	DefaultValue string
}

// Register adds the flag to flags.
func (f FlagStruct) Register(flags *pflag.FlagSet) {
	flags.StringP(f.Label, f.Short, f.DefaultValue, f.Description)
}

// RegisterAll adds every flag of fs to flags.
func RegisterAll(flags *pflag.FlagSet, fs ...FlagStruct) {
	for _, f := range fs {
		f.Register(flags)
	}
}
