package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/infocache"
	"ytmeta/internal/media"
	"ytmeta/internal/provider"
	"ytmeta/internal/services/ytdlp"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var remote bool
	var refresh bool
	var name string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <path>",
		Short: "Show the metadata ytmeta derives for a media file or show folder",
		Long: `Show the metadata derived from the yt-dlp sidecar that belongs to a media
file, or for --kind series, from the sidecars below a show folder.

With --remote the yt-dlp backed cache is consulted first and refreshed when
stale; if yt-dlp is not installed the local sidecars are used instead.
--refresh implies --remote and refetches even when the cached sidecar is fresh.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			kind, err := media.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			logger := ctx.cliLogger()

			var result media.Result
			switch {
			case !remote && !refresh:
				result = provider.NewLocal(kind, fileutil.OS{}, logger).GetMetadata(cmd.Context(), path)
			default:
				cache := ctx.cache(cfg)
				if refresh {
					cache = ctx.cacheWithPolicy(cfg, infocache.Expired)
				}
				fetcher, err := ytdlp.NewFromConfig(cfg, cache, logger)
				if err != nil {
					return err
				}
				if kind == media.KindSeries {
					showName := strings.TrimSpace(name)
					if showName == "" {
						showName = filepath.Base(path)
					}
					result = provider.NewRemoteSeries(fetcher, cache, fileutil.OS{}, logger).
						GetMetadata(cmd.Context(), provider.SeriesInfo{Name: showName, Path: path})
				} else {
					result = provider.NewRemoteVideo(kind, fetcher, cache, fileutil.OS{}, logger).
						GetMetadata(cmd.Context(), path)
				}
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if !result.HasMetadata {
				fmt.Fprintf(out, "No metadata found for %s\n", path)
				return nil
			}
			fmt.Fprintln(out, renderResult(kind, result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "episode", "Record kind: movie, episode, series, musicvideo")
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch missing or stale sidecars with yt-dlp")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch with yt-dlp even when the cached sidecar is fresh")
	cmd.Flags().StringVar(&name, "name", "", "Show name used for the channel search (--kind series --remote); defaults to the folder name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the result as JSON")
	return cmd
}

func renderResult(kind media.Kind, result media.Result) string {
	item := result.Item
	fields := [][2]string{
		{"Kind", kind.String()},
		{"Name", item.Name},
		{"Provider ID", item.ProviderID()},
		{"Premiere", formatDate(item.PremiereDate)},
		{"Year", formatInt(item.ProductionYear)},
		{"Season", formatInt(item.ParentIndexNumber)},
		{"Episode", formatInt(item.IndexNumber)},
		{"Album", item.Album},
		{"Artists", strings.Join(item.Artists, ", ")},
		{"Thumbnails", countLabel(len(item.Thumbnails))},
		{"Overview", truncate(item.Overview, 240)},
	}
	for _, person := range result.People {
		fields = append(fields, [2]string{string(person.Kind), fmt.Sprintf("%s (%s)", person.Name, person.ProviderIDs[media.ProviderKey])})
	}
	return renderFields(fields)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func countLabel(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
