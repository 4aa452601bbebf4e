package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NikolaiRadke/Extension-Manager/internal/audit"
	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/i18n"
	"github.com/NikolaiRadke/Extension-Manager/internal/logging"
	"github.com/NikolaiRadke/Extension-Manager/internal/report"
)

var outputFormat string

// newAuditComponents wires the logger, catalog, auditor and formatter
// shared by the scan and lifecycle commands.
func newAuditComponents() (*audit.Auditor, *report.Formatter, *zap.SugaredLogger, error) {
	logger, err := logging.New(debugMode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	cat, ignore, err := catalog.Load(policyPath)
	if err != nil {
		return nil, nil, nil, err
	}
	workspace := filepath.Join(os.TempDir(), "extension-manager")
	auditor := audit.New(workspace, cat, ignore, logger)
	formatter := report.New(i18n.New(langTag))
	return auditor, formatter, logger, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [bundle.vsix]",
	Short: "Scan an extension bundle for risky code before installing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auditor, formatter, logger, err := newAuditComponents()
		if err != nil {
			return err
		}
		defer logger.Sync()

		bundle := args[0]
		logger.Infof("scanning bundle: %s", bundle)

		result, err := auditor.Scan(bundle)
		if err != nil {
			return fmt.Errorf("bundle could not be analyzed: %w", err)
		}

		name := result.ExtensionName
		if name == "" {
			name = filepath.Base(bundle)
		}

		if outputFormat == "json" {
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}

		fmt.Println(formatter.Format(result, name))
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
	rootCmd.AddCommand(scanCmd)
}
