package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scholarmap/internal/live"
	"scholarmap/internal/logging"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		addr   string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print location change events from a running server's TCP feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(g.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for {
				err := live.Watch(ctx, addr, cmd.OutOrStdout(), pretty)
				if ctx.Err() != nil {
					return nil
				}
				log.Warn("feed disconnected", zap.String("addr", addr), zap.Error(err))
				if !sleepCtx(ctx, time.Second) {
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "feed address (map.feed_addr of the server)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent JSON events")
	return cmd
}

// sleepCtx reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

