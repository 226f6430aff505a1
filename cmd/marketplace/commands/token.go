package commands

import (
	"fmt"

	"marketplace-service/pkg/jwtutil"

	"github.com/spf13/cobra"
)

var (
	tokenIdentity string
	tokenEmail    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Long: `Mint an HS256 bearer token signed with JWT_SIGNING_KEY.

Examples:
  marketplace token --identity vendor-1
  marketplace token --identity supplier-1 --email ravi@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := jwtutil.NewJWTUtil(&cfg.JWT).GenerateToken(tokenIdentity, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenIdentity, "identity", "", "Identity placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Optional email claim")
	_ = tokenCmd.MarkFlagRequired("identity")
}
