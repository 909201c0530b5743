package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fatalSec/DaliVM/internal/config"
	"github.com/fatalSec/DaliVM/internal/session"
)

var depsCmd = &cobra.Command{
	Use:   "deps <apk> <signature>",
	Short: "Show the static fields, classes, and methods one method's body touches",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, cliArgs []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		s, err := session.Open(cliArgs[0], cfg)
		if err != nil {
			return err
		}

		deps, err := s.DependenciesOf(cliArgs[1])
		if err != nil {
			return err
		}

		printSet("static fields", deps.StaticFields)
		printSet("classes needing <clinit>", deps.ClassesNeedingInit)
		printSet("methods called", deps.MethodsCalled)
		return nil
	},
}

func printSet(title string, set map[string]bool) {
	fmt.Printf("%s:\n", title)
	if len(set) == 0 {
		fmt.Println("  (none)")
		return
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}
