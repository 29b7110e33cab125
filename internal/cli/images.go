package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored captures, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := app.client.ListImages(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			styled(headerStyle, "FILENAME"), styled(headerStyle, "SIZE"), styled(headerStyle, "CREATED"))
		for _, img := range resp.Images {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", img.Filename, humanSize(img.Size), img.Created.Local().Format("2006-01-02 15:04:05"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		printf(cmd.OutOrStdout(), "%d image(s)\n", resp.Count)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload image files to the capture service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var failed int
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				printf(out, "%s %v\n", styled(errStyle, "failed"), err)
				failed++
				continue
			}

			info, err := app.client.Upload(cmd.Context(), filepath.Base(path), f)
			f.Close()
			if err != nil {
				printf(out, "%s %s: %v\n", styled(errStyle, "failed"), path, err)
				failed++
				continue
			}
			printf(out, "%s %s -> %s (%s)\n", styled(okStyle, "uploaded"), path, info.Filename, humanSize(info.Size))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d upload(s) failed", failed, len(args))
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the capture service is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		h, err := app.client.Health(cmd.Context())
		if err != nil {
			printf(out, "%s %s\n", styled(errStyle, "DOWN"), app.client.BaseURL())
			return err
		}
		printf(out, "%s %s\n", styled(okStyle, h.Status), h.Message)
		printf(out, "images: %s\n", h.DataImageDir)

		stats, err := app.client.Stats(cmd.Context())
		if err != nil {
			app.logger.Debug("Stats unavailable: %v", err)
			return nil
		}
		printf(out, "captures: %d (%s)\n", stats.Stats.TotalCaptures, humanSize(stats.Stats.TotalSizeBytes))
		for source, n := range stats.Stats.PerSource {
			printf(out, "  %s: %d\n", source, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(healthCmd)
}
