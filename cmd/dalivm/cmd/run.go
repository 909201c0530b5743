package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fatalSec/DaliVM/internal/config"
	"github.com/fatalSec/DaliVM/internal/session"
	"github.com/fatalSec/DaliVM/internal/value"
)

var argsFlag string

var runCmd = &cobra.Command{
	Use:   "run <apk> <signature>",
	Short: "Emulate one method against literal arguments (spec.md §6 emulate_with_args)",
	Long: "Resolves <signature> (the canonical \"Lpkg/Class;->name\" form, optionally\n" +
		"extended with \"(params)return\") against <apk>'s dex containers and runs it\n" +
		"with --args, printing its result.",
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, cliArgs []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		s, err := session.Open(cliArgs[0], cfg)
		if err != nil {
			return err
		}

		callArgs, err := parseArgs(argsFlag)
		if err != nil {
			return errors.Wrap(err, "run: --args")
		}

		result, returned, err := s.EmulateWithArgs(cliArgs[1], callArgs)
		if err != nil {
			return err
		}
		if !returned {
			fmt.Println("(no return value: method not found, void, or unresolvable)")
			return nil
		}
		fmt.Println(result.String())
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&argsFlag, "args", "", "comma-separated literal arguments (decimal ints or \"quoted strings\")")
}

// parseArgs turns a --args flag value into Dalvik call arguments: a token
// wrapped in double quotes becomes a String Value, anything else is parsed
// as a decimal integer (spec.md's literal end-to-end scenarios only ever
// call methods with int or String parameters).
func parseArgs(flag string) ([]value.Value, error) {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return nil, nil
	}
	tokens := strings.Split(flag, ",")
	out := make([]value.Value, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
			out = append(out, value.NewString(tok[1:len(tok)-1]))
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, errors.Errorf("argument %q is neither a quoted string nor a decimal integer", tok)
		}
		out = append(out, value.Int32(int32(n)))
	}
	return out, nil
}
