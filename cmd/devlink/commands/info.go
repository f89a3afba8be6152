package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devlink/internal/crypto"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print this device's identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := wire.Start(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device ID:       %s\n", local.DeviceID)
			fmt.Fprintf(out, "Name:            %s\n", local.DisplayName)
			fmt.Fprintf(out, "Platform:        %s\n", local.Platform)
			fmt.Fprintf(out, "Registration ID: %d\n", local.RegistrationID)
			fmt.Fprintf(out, "Fingerprint:     %s\n", crypto.Fingerprint(local.IdentityKeyPair.Public))
			fmt.Fprintf(out, "Created:         %s\n", local.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Last synced:     %s\n", local.LastSyncedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			fp, err := wire.Identity.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [name]",
		Short: "Change this device's display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			entry, err := wire.Devices.RenameCurrent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q\n", entry.DisplayName)
			return nil
		},
	}
}
