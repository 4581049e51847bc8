package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cgtestdeepak-cmd/QA/pkg/auth"
)

type tokenFlags struct {
	user string
	ttl  time.Duration
}

var tokFlags tokenFlags

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with JWT_SECRET",
	Long: `token signs a token for --user with the server's JWT_SECRET.
History and jobs are scoped to that user. Export the result as TCGEN_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user := strings.TrimSpace(tokFlags.user)
		if user == "" {
			return errors.New("--user is required")
		}
		authn, err := auth.NewAuthenticator(os.Getenv("JWT_SECRET"))
		if err != nil {
			return fmt.Errorf("JWT_SECRET: %w", err)
		}
		token, err := authn.IssueToken(user, tokFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokFlags.user, "user", "", "identity the token is issued for")
	tokenCmd.Flags().DurationVar(&tokFlags.ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
}
