package smoke

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/session-auth-service/internal/tools/common"
)

type options struct {
	baseURL       string
	password      string
	ci            bool
	skipRateLimit bool
	timeout       time.Duration
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run an end-to-end check against a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			steps, err := Run(ctx, Config{
				BaseURL:       opts.baseURL,
				Password:      opts.password,
				SkipRateLimit: opts.skipRateLimit,
				AttemptDelay:  150 * time.Millisecond,
			})
			if opts.ci {
				common.PrintCIResult(cmd.OutOrStdout(), "authd smoke", steps, err)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), common.RenderReport("authd smoke "+opts.baseURL, steps, err))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&opts.password, "password", "secret12", "password for the throwaway account")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "machine-readable JSON output")
	cmd.Flags().BoolVar(&opts.skipRateLimit, "skip-rate-limit", false, "skip the login rate limit probe")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}
