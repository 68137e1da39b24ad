package main

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/iho/orgconf/internal/domain"
)

func newCurrencyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "currency <country-code>",
		Short: "Show the currency profile derived from a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile domain.CurrencyProfile
			path := "/api/v1/reference/currency/" + url.PathEscape(args[0])
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &profile); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), profile)
		},
	}
}

func newStatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "states <country-code>",
		Short: "List the states of a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				States []domain.State `json:"states"`
			}
			path := "/api/v1/reference/countries/" + url.PathEscape(args[0]) + "/states"
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp.States)
		},
	}
}

func newCitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cities <country-code> <state-code>",
		Short: "List the cities of a state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Cities []domain.City `json:"cities"`
			}
			path := "/api/v1/reference/countries/" + url.PathEscape(args[0]) + "/states/" + url.PathEscape(args[1]) + "/cities"
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp.Cities)
		},
	}
}

func newPostalCmd(opts *rootOptions) *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:   "postal [code]",
		Short: "Look up a postal code, or list the codes of --city",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reference/postal?city=" + url.QueryEscape(city)
			if len(args) == 1 {
				path = "/api/v1/reference/postal/" + url.PathEscape(args[0])
			}

			var resp struct {
				Postal []domain.PostalRecord `json:"postal"`
			}
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp.Postal)
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "City name to list postal codes for")
	return cmd
}
