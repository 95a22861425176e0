package command

import (
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user id",
		Long: `Issue a signed access token for --user. Paste it into the client with
"login <token>" to enable cloud sync for that user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)

			token, err := services.NewTokenService(rt.config).Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
