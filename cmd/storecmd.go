package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docmate/internal/chromemdb"
	"docmate/internal/config"
	"docmate/internal/models"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Back up or restore the chromem collection",
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the collection to an encrypted file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openChromem()
		if err != nil {
			return fatalIfConfig(err)
		}
		if err := m.OpenCollection(cfg.Store.Collection, ""); err != nil {
			return fatalIfConfig(err)
		}
		path, err := m.Export(cmd.Context())
		if err != nil {
			return fatalIfConfig(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", cfg.Store.Collection, path)
		return nil
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load a collection written by store export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openChromem()
		if err != nil {
			return fatalIfConfig(err)
		}
		if err := m.Import(cmd.Context(), args[0], cfg.Store.Collection); err != nil {
			return fatalIfConfig(err)
		}
		n, _ := m.Count(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s\n", n, cfg.Store.Collection)
		return nil
	},
}

func openChromem() (*chromemdb.VectorDBManager, error) {
	if cfg.Store.Type != config.StoreChromem {
		return nil, fmt.Errorf("%w: store export and import need the chromem store", models.ErrConfiguration)
	}
	return chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Compress, cfg.Store.EncryptionKey)
}

func init() {
	storeCmd.AddCommand(storeExportCmd, storeImportCmd)
	rootCmd.AddCommand(storeCmd)
}
