package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"devlink/internal/crypto"
	"devlink/internal/protocol/linkpayload"
)

func linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link another device to this account",
	}
	cmd.AddCommand(
		linkGenerateCmd(),
		linkVerifyCmd(),
		linkCompleteCmd(),
		linkAcceptCmd(),
		linkCancelCmd(),
		linkStateCmd(),
	)
	return cmd
}

// link generate: on the existing device.
func linkGenerateCmd() *cobra.Command {
	var (
		qrPath   string
		terminal bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a link code and the payload to scan on the new device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			p, err := wire.Linking.GenerateLinkCode(cmd.Context())
			if err != nil {
				return err
			}
			uri, err := linkpayload.URI(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Code:    %s\n", p.Code)
			fmt.Fprintf(out, "Expires: %s\n", p.ExpiresAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Payload: %s\n", uri)

			if qrPath != "" {
				png, err := wire.Linking.QRCode(p)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrPath, png, 0o600); err != nil {
					return err
				}
				fmt.Fprintf(out, "QR code written to %s\n", qrPath)
			}
			if terminal {
				s, err := wire.QR.Terminal(p)
				if err != nil {
					return err
				}
				fmt.Fprint(out, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the payload as a PNG QR code to this file")
	cmd.Flags().BoolVar(&terminal, "terminal", false, "draw the QR code in the terminal")
	return cmd
}

func linkVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [code]",
		Short: "Check a code against the pending link code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := wire.Linking.VerifyLinkCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("code does not match a pending link code")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Code is valid")
			return nil
		},
	}
}

// link complete: on the new device.
func linkCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete [code] [payload]",
		Short: "Join an account using the code and payload shown on the existing device",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload string
			if len(args) == 2 {
				payload = args[1]
			}
			req, err := wire.Linking.CompleteLinking(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			enc, err := linkpayload.EncodeRequest(req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fingerprint: %s\n", crypto.Fingerprint(req.IdentityPublicKey))
			fmt.Fprintf(out, "Run on the existing device:\n  devlink link accept %s\n", enc)
			return nil
		},
	}
}

// link accept: back on the existing device.
func linkAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept [request]",
		Short: "Accept the link request printed by the new device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Start(cmd.Context()); err != nil {
				return err
			}
			req, err := linkpayload.ParseRequest(args[0])
			if err != nil {
				return err
			}
			d, err := wire.Linking.AcceptLinkRequest(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s (%s), fingerprint %s\n",
				d.DisplayName, d.DeviceID, crypto.Fingerprint(d.IdentityPublicKey))
			return nil
		},
	}
}

func linkCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the pending link code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Linking.CancelLink(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Link cancelled")
			return nil
		},
	}
}

func linkStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the linking state",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := wire.Linking.State(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state)
			return nil
		},
	}
}
