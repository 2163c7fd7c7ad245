package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newAPICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Call the DEXCell REST API",
	}

	var query []string
	get := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a resource, e.g. /devices/42/readings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.client.RestAPI()
			if err != nil {
				return err
			}
			q, err := parseQuery(query)
			if err != nil {
				return err
			}
			res, err := api.Get(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	get.Flags().StringArrayVar(&query, "query", nil, "query parameter key=value (repeatable)")

	var data string
	post := &cobra.Command{
		Use:   "post <path>",
		Short: "POST a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.client.RestAPI()
			if err != nil {
				return err
			}
			var body interface{}
			if err := json.Unmarshal([]byte(data), &body); err != nil {
				return fmt.Errorf("--data: %w", err)
			}
			res, err := api.Post(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	post.Flags().StringVar(&data, "data", "{}", "JSON request body")

	cmd.AddCommand(get, post)
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
