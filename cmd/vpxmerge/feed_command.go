package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vpxmerge/internal/preflight"
	"vpxmerge/internal/vpsdb"
)

var errFeedDisabled = errors.New("metadata feed is disabled (metadata.enabled = false)")

func newFeedCommand(ctx *commandContext) *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage the cached Virtual Pinball Spreadsheet feed",
	}
	feedCmd.AddCommand(newFeedRefreshCommand(ctx))
	feedCmd.AddCommand(newFeedStatusCommand(ctx))
	feedCmd.AddCommand(newFeedClearCommand(ctx))
	return feedCmd
}

func newFeedRefreshCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download or revalidate the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.feedClient()
			if err != nil {
				return err
			}
			if client == nil {
				return errFeedDisabled
			}
			_, result, err := client.Load(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("refresh feed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeRefresh(result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", true, "Revalidate even when the cached copy is fresh")
	return cmd
}

func describeRefresh(result vpsdb.RefreshResult) string {
	var verb string
	switch result.Status {
	case vpsdb.StatusDownloaded:
		verb = "Downloaded"
	case vpsdb.StatusNotModified:
		verb = "Feed unchanged;"
	case vpsdb.StatusStale:
		verb = "Feed unreachable; using stale copy of"
	default:
		verb = "Using cached"
	}
	return fmt.Sprintf("%s %s (%s)", verb, plural(result.Games, "game", "games"), humanize.Bytes(uint64(result.Bytes)))
}

func newFeedStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache contents and age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result := preflight.CheckFeedCache(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			kind := statusOK
			if !result.Passed {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			fmt.Fprintln(out, renderStatusLine("Feed URL", statusInfo, enabledLabel(cfg.Metadata.Enabled, cfg.Metadata.FeedURL), colorize))
			return nil
		},
	}
}

func newFeedClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached feed bodies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(int(removed), "cached feed", "cached feeds"))
			return nil
		},
	}
}
