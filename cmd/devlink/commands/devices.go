package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"devlink/internal/crypto"
	"devlink/internal/domain"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List linked devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			devices, err := wire.Devices.LinkedDevices(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DEVICE ID\tNAME\tPLATFORM\tFINGERPRINT\tLAST SEEN\t")
			for _, d := range devices {
				name := d.DisplayName
				if d.IsCurrentDevice {
					name += " (this device)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
					d.DeviceID, name, d.Platform,
					crypto.Fingerprint(d.IdentityPublicKey), d.LastSeen.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func unlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink [device-id]",
		Short: "Remove a linked device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			id := domain.DeviceID(args[0])
			if err := wire.Devices.UnlinkDevice(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s\n", id)
			return nil
		},
	}
}
