package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

func newDownloadCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download workspace artifacts",
	}
	cmd.AddCommand(newDownloadConfigCommand(a))
	return cmd
}

func newDownloadConfigCommand(a *app) *cobra.Command {
	var org, cvID, file string
	cmd := &cobra.Command{
		Use:     "config <workspace>",
		Aliases: []string{"cfg"},
		Short:   "Download the configuration archive (tar.gz) of a workspace",
		Long: `Download the Terraform configuration behind a workspace.

Without --cv the newest uploaded configuration version is used. The archive
is written to configuration-<cv-id>.tar.gz unless --file names another path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.apiClient(ctx)
			if err != nil {
				return err
			}
			ws, err := c.ResolveWorkspace(ctx, args[0], a.defaultOrg(org))
			if err != nil {
				return err
			}

			var cv *tfe.ConfigurationVersion
			if cvID != "" {
				cv, err = c.GetConfigurationVersion(ctx, cvID)
				if err != nil {
					return err
				}
				if !cv.Downloadable() {
					return &tfe.ValidationError{Field: "cv", Message: fmt.Sprintf("%s is %s, not uploaded", cv.ID, cv.Attributes.Status)}
				}
			} else {
				cv, err = c.LatestConfigurationVersion(ctx, ws.ID)
				if err != nil {
					return err
				}
			}

			archive, err := c.DownloadConfiguration(ctx, cv.ID)
			if err != nil {
				return err
			}
			if file == "" {
				file = fmt.Sprintf("configuration-%s.tar.gz", cv.ID)
			}
			if err := os.WriteFile(file, archive, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			log.Debug("configuration downloaded", "workspace_id", ws.ID, "cv_id", cv.ID, "bytes", len(archive))
			fmt.Fprintf(a.out, "Downloaded %s (%d bytes) from %s to %s\n", cv.ID, len(archive), ws.Attributes.Name, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization of the workspace")
	cmd.Flags().StringVar(&cvID, "cv", "", "configuration version id (default: newest uploaded)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "destination path")
	return cmd
}
