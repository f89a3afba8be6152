package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"devlink/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local device identity, or show the existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := wire.Start(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device ready.\nDevice ID:   %s\n", local.DeviceID)
			fmt.Fprintf(out, "Fingerprint: %s\n", crypto.Fingerprint(local.IdentityKeyPair.Public))
			return nil
		},
	}
}
