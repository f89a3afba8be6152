package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"devlink/internal/services/identity"
)

func wipeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Irreversibly erase this device's identity, linked devices and pending link",
		Long: "Erase every device record. Messages addressed to this device's identity can " +
			"no longer be decrypted afterwards. Requires --yes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			// Load first so a wrong passphrase fails before anything is erased.
			if _, _, err := wire.Records.LoadLocalDevice(cmd.Context()); err != nil {
				return err
			}
			if err := wire.Identity.ClearAllDeviceData(cmd.Context(), identity.ConfirmWipe); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All device data erased")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that the identity should be destroyed")
	return cmd
}
