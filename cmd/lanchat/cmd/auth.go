package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/templui/lanchat/internal/validation"
)

func loginCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			_, err := e.client.Session.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(e *env) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and send a verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := validation.ValidateName(name)
			if err != nil {
				return err
			}
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			_, err = e.client.Session.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	return cmd
}

func googleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Sign in with Google in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := e.client.Session.LoginWithGoogle(cmd.Context())
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func verifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Confirm the emailed verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := e.client.Session.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func resendCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "resend",
		Short: "Send the verification code again",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := e.client.Session.ResendVerification(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Verification code sent.")
			return nil
		},
	}
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := e.client.Session.SignOut(cmd.Context())
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func statusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			printSession(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
