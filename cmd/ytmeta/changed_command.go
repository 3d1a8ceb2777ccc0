package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/library"
	"ytmeta/internal/media"
	"ytmeta/internal/provider"
)

func newChangedCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var lastSaved string
	var providerID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "changed <path>",
		Short: "Report whether a sidecar was written after the item was last saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := media.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			saved, err := time.Parse(time.RFC3339, strings.TrimSpace(lastSaved))
			if err != nil {
				return fmt.Errorf("--last-saved must be RFC3339: %w", err)
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			item := library.Item{Path: path, DateLastSaved: saved}
			if id := strings.TrimSpace(providerID); id != "" {
				item.ProviderIDs = map[string]string{media.ProviderKey: id}
			}
			local := provider.NewLocal(kind, fileutil.OS{}, ctx.cliLogger())
			changed := local.HasChanged(item)

			if asJSON {
				return writeJSON(cmd, struct {
					Path    string `json:"path"`
					Sidecar string `json:"sidecar,omitempty"`
					Changed bool   `json:"changed"`
				}{Path: path, Sidecar: sidecarPath(local, path), Changed: changed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Changed: %s\n", yesNo(changed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "episode", "Record kind: movie, episode, series, musicvideo")
	cmd.Flags().StringVar(&lastSaved, "last-saved", "", "When the item was last saved (RFC3339)")
	cmd.Flags().StringVar(&providerID, "provider-id", "", "The item's YoutubeMetadata provider id; items without one never change")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("last-saved")
	return cmd
}

func sidecarPath(local *provider.Local, path string) string {
	meta := local.Locate(path)
	if !meta.Exists {
		return ""
	}
	return meta.Path
}
