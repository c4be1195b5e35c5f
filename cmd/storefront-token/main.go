// Command storefront-token issues and inspects the bearer tokens the
// storefront API accepts. It is meant for local development and smoke tests.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcmexdev/seating-storefront/internal/pkg/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type tokenFlags struct {
	secret string
	issuer string
}

func newRootCmd() *cobra.Command {
	flags := &tokenFlags{}

	root := &cobra.Command{
		Use:          "storefront-token",
		Short:        "Issue and verify storefront bearer tokens",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.secret, "secret", os.Getenv("AUTH_TOKEN_SECRET"), "HS256 signing secret (defaults to $AUTH_TOKEN_SECRET)")
	root.PersistentFlags().StringVar(&flags.issuer, "issuer", envOr("AUTH_TOKEN_ISSUER", "seating-storefront"), "token issuer")

	root.AddCommand(newIssueCmd(flags), newVerifyCmd(flags))
	return root
}

func newIssueCmd(flags *tokenFlags) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a buyer",
		Long: `Sign a token for a buyer. The subject becomes the session key, so two
tokens with the same subject share one cart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.secret == "" {
				return fmt.Errorf("--secret or AUTH_TOKEN_SECRET is required")
			}
			token, err := auth.NewVerifier(flags.secret, flags.issuer).Issue(subject, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "buyer id (required)")
	cmd.Flags().StringVar(&email, "email", "", "buyer email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newVerifyCmd(flags *tokenFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.secret == "" {
				return fmt.Errorf("--secret or AUTH_TOKEN_SECRET is required")
			}
			claims, err := auth.NewVerifier(flags.secret, flags.issuer).Verify(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subject: %s\n", claims.Subject)
			if claims.Email != "" {
				fmt.Fprintf(out, "email:   %s\n", claims.Email)
			}
			fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
