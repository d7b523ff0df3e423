package cmd

import (
	"github.com/named-data/lfq/std/utils"
	"github.com/named-data/lfq/tools/stress"
	"github.com/spf13/cobra"
)

const banner = `
  _      __
 | |    / _| __ _
 | |   | |_ / _  |
 | |___|  _| (_| |
 |_____|_|  \__, |
               |_|

Lock-free FIFO queue tools
`

func init() {
	cobra.EnableCommandSorting = false
}

// CmdLfq creates the root command with all tools attached.
// Every call returns an independent tree. Errors are not printed;
// the caller logs the error returned by Execute.
func CmdLfq() *cobra.Command {
	root := &cobra.Command{
		Use:           "lfq",
		Short:         "Lock-free FIFO queue tools",
		Long:          banner[1:],
		Version:       utils.LfqVersion,
		SilenceErrors: true,
	}

	root.CompletionOptions.HiddenDefaultCmd = true
	root.PersistentFlags().BoolP("help", "h", false, "Print usage")
	root.PersistentFlags().Lookup("help").Hidden = true

	root.AddGroup(&cobra.Group{ID: "tools", Title: "Test Tools"})
	root.AddCommand(stress.CmdStress())
	return root
}
