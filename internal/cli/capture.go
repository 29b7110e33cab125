package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"depthcapture/internal/capture"
	"depthcapture/internal/service/raster"
	"depthcapture/internal/service/storage"

	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture frames from the live stream",
	Long: `Connect to the live stream, wait for the first frame and capture one or
more still frames. Each frame is sent to the capture service; when that fails
it is saved into the downloads directory instead.

Examples:
  capturectl capture                          # One frame
  capturectl capture --count 5 --interval 2s  # Five frames, two seconds apart
  capturectl capture --stream http://cam:3001/capture/streaming`,
	RunE: runCapture,
}

// Flags
var (
	captureStream   string
	captureDownload string
	captureCount    int
	captureInterval time.Duration
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVar(&captureStream, "stream", "", "MJPEG stream URL (overrides STREAM_URL)")
	captureCmd.Flags().StringVar(&captureDownload, "download-dir", "", "Fallback directory (overrides DOWNLOAD_DIR)")
	captureCmd.Flags().IntVarP(&captureCount, "count", "n", 1, "Number of frames to capture")
	captureCmd.Flags().DurationVar(&captureInterval, "interval", time.Second, "Delay between captures")
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	cfg := app.cfg
	if captureStream != "" {
		cfg.StreamURL = captureStream
	}
	if captureDownload != "" {
		cfg.DownloadDirectory = captureDownload
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller := capture.NewController(&capture.MJPEGBinder{URL: cfg.StreamURL}, app.logger,
		capture.OnStateChange(func(from, to capture.State, err error) {
			app.logger.Debug("Stream %s -> %s", from, to)
		}))
	defer controller.Stop()

	capturer := capture.NewCapturer(controller,
		raster.NewSurface(cfg.DefaultFrameWidth, cfg.DefaultFrameHeight),
		capture.Chain{
			&capture.ServiceDelivery{Client: app.client},
			&capture.LocalSaveDelivery{Store: storage.NewArtifactStore(cfg.DownloadDirectory)},
		},
		app.logger,
	)

	if err := controller.Start(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.CaptureTimeout)*time.Second)
	state, err := controller.Wait(waitCtx, capture.Active, capture.Error)
	cancel()
	if err != nil {
		return fmt.Errorf("waiting for first frame: %w", err)
	}
	if state == capture.Error {
		return controller.Err()
	}

	out := cmd.OutOrStdout()
	failures := 0
	for i := 0; i < captureCount; i++ {
		if i > 0 {
			select {
			case <-time.After(captureInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		res, err := capturer.Capture(ctx)
		switch {
		case errors.Is(err, capture.ErrCaptureRejected):
			printf(out, "%s %v\n", styled(warnStyle, "skipped"), err)
			failures++
		case err != nil:
			printf(out, "%s %v\n", styled(errStyle, "failed"), err)
			failures++
		default:
			printf(out, "%s %s %s %s\n",
				styled(okStyle, "saved"),
				res.Filename,
				styled(dimStyle, "via "+res.Delivery),
				humanSize(res.Size))
		}
	}

	session := controller.Session()
	printf(out, "%d/%d frame(s) captured in session %s\n", session.CaptureCount(), captureCount, session.ID)
	if failures == captureCount {
		return fmt.Errorf("no frame captured")
	}
	return nil
}
