package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	timeout time.Duration
	actor   string
}

func (o *rootOptions) client() *apiClient {
	return &apiClient{
		baseURL: o.baseURL,
		actor:   o.actor,
		http:    &http.Client{Timeout: o.timeout},
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "orgconf-cli",
		Short:         "orgconf CLI tool",
		Long:          `A command line interface for configuring companies and branches through the orgconf API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the orgconf API")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.PersistentFlags().StringVar(&opts.actor, "actor", "", "Value of the X-Actor header recorded in audit logs")

	cmd.AddCommand(
		newSessionCmd(opts),
		newCurrencyCmd(opts),
		newStatesCmd(opts),
		newCitiesCmd(opts),
		newPostalCmd(opts),
		newMigrateCmd(),
		newOutboxCmd(),
		newCacheCmd(),
	)
	return cmd
}
