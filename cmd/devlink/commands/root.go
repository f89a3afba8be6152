package commands

import (
	"github.com/spf13/cobra"

	"devlink/internal/app"
)

var (
	home       string
	configPath string
	passphrase string
	backend    string
	wire       *app.Wire
)

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "devlink",
		Short:         "Manage this device's identity and the devices linked to it",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				_ = wire.Close()
			}
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if passphrase != "" {
				cfg.Store.Passphrase = passphrase
			}
			if backend != "" {
				cfg.Store.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			err := wire.Close()
			wire = nil
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.devlink)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing the identity at rest")
	root.PersistentFlags().StringVar(&backend, "store", "", "storage backend: file, sqlite, postgres or redis")

	root.AddCommand(
		initCmd(),
		infoCmd(),
		fingerprintCmd(),
		renameCmd(),
		devicesCmd(),
		unlinkCmd(),
		linkCmd(),
		wipeCmd(),
	)
	return root
}
