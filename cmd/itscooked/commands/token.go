package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/itscooked/internal/logger"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user",
	Long: `Sign a bearer token for the recipe API with the configured JWT secret.
The user id becomes the token subject and scopes every saved recipe.

Examples:
  ITSCOOKED_JWT_SECRET=change-me itscooked token --user alice --ttl 720h`,
	PreRunE: bindSharedFlags,
	RunE:    runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.String("user", "", "user id to issue the token for (required)")
	flags.Duration("ttl", 0, "token lifetime (0 = no expiry)")
	addAuthFlags(flags)

	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	initLogger()

	verifier, err := newVerifier()
	if err != nil {
		logError("%v", err)
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := verifier.Issue(user, ttl)
	if err != nil {
		logger.Error("failed to issue token", "user", user, "error", err)
		return err
	}

	logger.Debug("token issued", "user", user, "ttl", ttl)
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
