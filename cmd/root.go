/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"unicode"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/wdmerger/utils"
)

var (
	cfgFile  string
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wdmerger",
	Short: "Post processing for the white dwarf merger test suite",
	Long: `
Reads the plotfiles and diagnostic logs written by the simulation and
produces error norms, slice plots and conservation summaries.

wdmerger compare -I compare.yaml
wdmerger sweep -I sweep.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if err = viper.BindPFlags(cmd.Flags()); err != nil {
			return
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			utils.SetLogger(nil)
		}
		mode, _ := cmd.Flags().GetString("profile")
		return startProfile(mode)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exitOnError(err)
	}
	stopProfile()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wdmerger.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "write a profile of the run, one of: cpu, mem")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress messages")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			exitOnError(err)
		}
		// Search config in home directory with name ".wdmerger" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".wdmerger")
	}
	viper.SetEnvPrefix("WDMERGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		utils.Logf("Using config file: %s\n", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		exitOnError(fmt.Errorf("reading config file: %w", err))
	}
}

func startProfile(mode string) error {
	switch mode {
	case "":
	case "cpu":
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
	case "mem":
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
	default:
		return fmt.Errorf("unknown profile mode %q, must be one of cpu, mem", mode)
	}
	return nil
}

func stopProfile() {
	if profiler != nil {
		utils.Logf("%s\n", utils.GetMemUsage())
		profiler.Stop()
		profiler = nil
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	stopProfile()
	fmt.Printf("error: %s\n", err.Error())
	os.Exit(1)
}

// setting returns true when the named flag was given on the command line,
// in the config file or in the environment.
func setting(name string) bool { return viper.IsSet(name) }

// intSetting reads an integer list setting. Values from the environment
// arrive as text, "10,30" or "10 30".
func intSetting(name string) (vals []int, err error) {
	s, ok := viper.Get(name).(string)
	if !ok {
		return viper.GetIntSlice(name), nil
	}
	sep := func(r rune) bool { return r == ',' || unicode.IsSpace(r) }
	for _, tok := range strings.FieldsFunc(strings.Trim(s, "[]"), sep) {
		var n int
		if n, err = strconv.Atoi(tok); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		vals = append(vals, n)
	}
	return
}

// readDeck reads a YAML input file, if one was named with -I.
func readDeck(cmd *cobra.Command) (data []byte, err error) {
	var fileName string
	if fileName, err = cmd.Flags().GetString("inputConditionsFile"); err != nil || len(fileName) == 0 {
		return
	}
	if data, err = os.ReadFile(fileName); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return
}
