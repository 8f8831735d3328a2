package main

import (
	"fmt"

	"github.com/spf13/cobra"

	portservices "notekeeper/internal/notes/ports/services"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	Subject  string
	Audience string
}

func newTokenCommand() *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the notes API",
		Long: `Issue a signed access token using the configured JWT settings.

Example:
  notes token --subject alice --audience User`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return issueToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "token subject")
	cmd.Flags().StringVar(&opts.Audience, "audience", string(portservices.AudienceUser), "token audience (User|Admin)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func issueToken(cmd *cobra.Command, opts *TokenOptions) error {
	ctx := cmd.Context()

	audience, err := portservices.ParseAudience(opts.Audience)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	tokens, err := newTokenService(&cfg.JWT)
	if err != nil {
		return err
	}

	token, err := tokens.Issue(ctx, opts.Subject, audience)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
