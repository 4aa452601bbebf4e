package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	debugMode  bool
	policyPath string
	langTag    string
	homeDir    string
)

var rootCmd = &cobra.Command{
	Use:   "extension-manager",
	Short: "Extension-Manager - install, manage and security-scan extension bundles",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".extension-manager"
	}
	return filepath.Join(home, ".extension-manager")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "path to a YAML scan policy file")
	rootCmd.PersistentFlags().StringVar(&langTag, "lang", "en", "report language")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", defaultHome(), "extensions root directory")
}
