package cmd

import (
	"os"
	"strings"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// Verbose enables debug-level logging across every subcommand.
	Verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dalivm",
	Short: "Targeted Dalvik bytecode interpreter for Android string de-obfuscation",
}

// Execute adds every child command and runs the CLI; called once from
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetHandler(clihandler.Default)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/dalivm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().String("package-name", "", "value Context.getPackageName returns (spec.md §6 package_name)")
	rootCmd.PersistentFlags().String("signature-bytes", "", "hex bytes Signature.toByteArray returns (spec.md §6 signature_bytes)")
	rootCmd.PersistentFlags().Int("sdk-int", 0, "value Build.VERSION.SDK_INT returns (spec.md §6 sdk_int); 0 keeps the bundled default")
	rootCmd.PersistentFlags().Int("max-instructions", 0, "abort emulation past this many instructions; 0 keeps the bundled default")
	rootCmd.PersistentFlags().Duration("timeout", 0, "abort emulation past this wall-clock duration; 0 keeps the bundled default")

	viper.BindPFlag("package_name", rootCmd.PersistentFlags().Lookup("package-name"))
	viper.BindPFlag("signature_bytes", rootCmd.PersistentFlags().Lookup("signature-bytes"))
	viper.BindPFlag("sdk_int", rootCmd.PersistentFlags().Lookup("sdk-int"))
	viper.BindPFlag("max-instructions", rootCmd.PersistentFlags().Lookup("max-instructions"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(callsitesCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig reads a config file and environment variables, matching
// blacktop-ipsw's own root.go initConfig shape.
func initConfig() {
	if Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home + "/.config/dalivm")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("dalivm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("using config file: %s", viper.ConfigFileUsed())
	}
}
