package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) resetCmd() *cobra.Command {
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password with an OTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := c.app.Session.Reset()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "step: %s\n", flow.Step)
			if flow.Mobile != "" {
				fmt.Fprintf(out, "mobile: %s\n", flow.Mobile)
			}
			if flow.Err != "" {
				fmt.Fprintf(out, "last error: %s\n", flow.Err)
			}
			return nil
		},
	}

	reset.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Begin a password reset",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.BeginPasswordReset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Next: storefront reset request <mobile>")
				return nil
			},
		},
		&cobra.Command{
			Use:   "request <mobile>",
			Short: "Send an OTP to the mobile number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.RequestPasswordReset(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OTP sent. Next: storefront reset verify <otp>")
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify <otp>",
			Short: "Check the OTP",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.VerifyOTP(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OTP verified. Next: storefront reset password <new-password>")
				return nil
			},
		},
		&cobra.Command{
			Use:   "password <new-password>",
			Short: "Set the new password",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.ResetPassword(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed. You can log in now.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "cancel",
			Short: "Abandon the reset",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Session.CancelPasswordReset(cmd.Context())
			},
		},
	)
	return reset
}
