package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/iho/orgconf/internal/adapter/http/dto"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Drive entity-edit sessions",
	}

	cmd.AddCommand(
		newSessionStartCmd(opts),
		newSessionShowCmd(opts),
		newSessionProposeCmd(opts),
		newSessionAnchorCmd(opts, "confirm", "Confirm a pending fiscal anchor change and reset dependent data"),
		newSessionAnchorCmd(opts, "cancel", "Cancel a pending fiscal anchor change"),
		newSessionSubmitCmd(opts),
		newSessionCloseCmd(opts),
	)
	return cmd
}

func sessionPath(id string, suffix string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + suffix
}

func newSessionStartCmd(opts *rootOptions) *cobra.Command {
	var req dto.StartSessionRequest

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.SessionResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/sessions/", &req, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Mode, "mode", "create", "Session mode: create, edit or view")
	cmd.Flags().StringVar(&req.Kind, "kind", "company", "Entity kind: company or branch")
	cmd.Flags().StringVar(&req.EntityID, "entity", "", "Entity ID (edit and view mode)")
	cmd.Flags().StringVar(&req.ParentID, "parent", "", "Parent company ID (branches)")
	return cmd
}

func newSessionShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.SessionResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, sessionPath(args[0], ""), nil, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newSessionProposeCmd(opts *rootOptions) *cobra.Command {
	var revision int64

	cmd := &cobra.Command{
		Use:   "propose <session-id> <field> <value>",
		Short: "Propose a field value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.ProposeFieldRequest{Field: args[1], Value: args[2]}
			if cmd.Flags().Changed("revision") {
				req.Revision = &revision
			}

			var resp dto.SessionResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, sessionPath(args[0], "/fields"), &req, &resp); err != nil {
				return err
			}
			if len(resp.Pending) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "pending anchor changes need confirmation; run `session confirm` or `session cancel`")
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64Var(&revision, "revision", 0, "Expected session revision")
	return cmd
}

func newSessionAnchorCmd(opts *rootOptions, action, short string) *cobra.Command {
	var revision int64

	cmd := &cobra.Command{
		Use:   action + " <session-id> <financial_year_start|books_beginning_date>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.AnchorRequest{Field: args[1]}
			if cmd.Flags().Changed("revision") {
				req.Revision = &revision
			}

			var resp any = &dto.SessionResponse{}
			if action == "confirm" {
				resp = &dto.ConfirmResponse{}
			}
			if err := opts.client().do(cmd.Context(), http.MethodPost, sessionPath(args[0], "/anchors/"+action), &req, resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64Var(&revision, "revision", 0, "Expected session revision")
	return cmd
}

func newSessionSubmitCmd(opts *rootOptions) *cobra.Command {
	var revision int64

	cmd := &cobra.Command{
		Use:   "submit <session-id>",
		Short: "Validate and save the session's entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.SubmitRequest
			if cmd.Flags().Changed("revision") {
				req.Revision = &revision
			}

			var resp dto.EntityResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, sessionPath(args[0], "/submit"), &req, &resp); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64Var(&revision, "revision", 0, "Expected session revision")
	return cmd
}

func newSessionCloseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id>",
		Short: "Discard a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().do(cmd.Context(), http.MethodDelete, sessionPath(args[0], ""), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session closed")
			return nil
		},
	}
}
