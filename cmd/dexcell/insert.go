package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dexcell/pkg/dexcell"
	"github.com/bft-labs/dexcell/pkg/message"
	"github.com/bft-labs/dexcell/pkg/sender"
	"github.com/bft-labs/dexcell/pkg/state"
)

func newInsertCmd(a *app) *cobra.Command {
	var (
		node    string
		service string
		value   string
		seq     int64
		at      string
		extra   []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := message.ParseService(service)
			if err != nil {
				return err
			}
			fields, err := parseExtra(extra)
			if err != nil {
				return err
			}

			repo := state.NewFileRepository(a.cfg.StateDir)
			st, err := repo.Load(ctx)
			if err != nil {
				return fmt.Errorf("load sequence state: %w", err)
			}
			if cmd.Flags().Changed("seq") {
				st.Observe(node, seq)
			} else {
				seq = st.Next(node)
			}

			msg, err := message.New(node, svc, parseAt(at, time.Now()), value, seq)
			if err != nil {
				return err
			}
			opts := []sender.SubmitOption{
				sender.WithTimezone(a.cfg.Timezone),
				sender.WithExtraFields(fields),
			}

			if dryRun {
				body, err := a.client.Sender.Envelope([]message.ServiceMessage{msg}, opts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}

			resp, err := a.client.Sender.SubmitOne(ctx, msg, opts...)
			if err != nil {
				return err
			}
			if resp.Failed() {
				return dexcell.ErrSubmitFailed
			}

			st.MarkInserted(time.Now())
			if err := repo.Save(context.WithoutCancel(ctx), st); err != nil {
				a.logger.Warn().Err(err).Str("path", repo.Path()).Msg("failed to save sequence state")
			}
			a.logger.Info().
				Str("reading", msg.String()).
				Int("status", resp.StatusCode).
				Msg("reading inserted")
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, resp.Data)
			return nil
		},
	}

	cmd.Flags().StringVar(&node, "node", "", "node network id")
	cmd.Flags().StringVar(&service, "service", "", "service code or name, e.g. 402 or active_energy")
	cmd.Flags().StringVar(&value, "value", "", "reading value")
	cmd.Flags().Int64Var(&seq, "seq", 0, "sequence number (default: next number for the node)")
	cmd.Flags().StringVar(&at, "at", "", "reading time, RFC 3339 or 2006-01-02T15:04:05 (default: now)")
	cmd.Flags().StringArrayVar(&extra, "extra", nil, "extra envelope field key=value (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the envelope instead of sending it")
	_ = cmd.MarkFlagRequired("node")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}
