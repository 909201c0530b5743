package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fatalSec/DaliVM/internal/config"
	"github.com/fatalSec/DaliVM/internal/session"
)

var callsitesCmd = &cobra.Command{
	Use:   "callsites <apk> [signature]",
	Short: "List call sites, or call sites targeting one method (spec.md §6 find_all_call_sites)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, cliArgs []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		s, err := session.Open(cliArgs[0], cfg)
		if err != nil {
			return err
		}

		sites := s.AllCallSites()
		if len(cliArgs) == 2 {
			sites = s.CallSitesFor(cliArgs[1])
		}
		if len(sites) == 0 {
			fmt.Println("(no call sites found)")
			return nil
		}
		for _, cs := range sites {
			fmt.Printf("%s pc=%d -> %s\n", cs.Caller, cs.PC, cs.Callee)
		}
		return nil
	},
}
