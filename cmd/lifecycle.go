package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NikolaiRadke/Extension-Manager/internal/archive"
	"github.com/NikolaiRadke/Extension-Manager/internal/lifecycle"
)

var assumeYes bool

func newManager() (*lifecycle.Manager, func(), error) {
	auditor, formatter, logger, err := newAuditComponents()
	if err != nil {
		return nil, nil, err
	}
	m := &lifecycle.Manager{
		Root:      homeDir,
		Auditor:   auditor,
		Formatter: formatter,
		Extractor: archive.New(),
		Log:       logger,
	}
	return m, func() { _ = logger.Sync() }, nil
}

// promptConfirm shows the risk report and reads a y/N answer. The human
// always makes the final call; the scan itself never blocks an install.
func promptConfirm(text string) bool {
	if assumeYes {
		return true
	}
	fmt.Println(text)
	fmt.Print("Install anyway? [y/N] ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

var installCmd = &cobra.Command{
	Use:   "install [bundle.vsix]",
	Short: "Scan and install an extension bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		name, err := m.Install(args[0], promptConfirm)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s\n", name)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [name]",
	Short: "Remove an installed extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		return m.Uninstall(args[0], promptConfirm)
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable [name]",
	Short: "Re-enable a disabled extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		return m.Enable(args[0])
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable [name]",
	Short: "Disable an extension without removing its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		return m.Disable(args[0])
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [bundle.vsix]",
	Short: "Replace an installed extension with a newer bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		name, err := m.Upgrade(args[0], promptConfirm)
		if err != nil {
			return err
		}
		fmt.Printf("Upgraded %s\n", name)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed and disabled extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, done, err := newManager()
		if err != nil {
			return err
		}
		defer done()
		for _, ext := range m.List() {
			state := "enabled"
			if !ext.Enabled {
				state = "disabled"
			}
			fmt.Printf("- %s %s (%s, %s)\n", ext.Name, ext.Version, ext.Publisher, state)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "install without confirmation even when issues were found")
	upgradeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "upgrade without confirmation even when issues were found")
	rootCmd.AddCommand(installCmd, uninstallCmd, enableCmd, disableCmd, upgradeCmd, listCmd)
}
