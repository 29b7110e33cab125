package cli

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"depthcapture/internal/service/events"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print captures as the service stores them",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url, err := app.client.EventsURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	app.logger.Info("Watching %s", url)
	out := cmd.OutOrStdout()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var e events.Event
		if err := json.Unmarshal(msg, &e); err != nil {
			app.logger.Warning("Ignoring malformed event: %v", err)
			continue
		}
		printf(out, "%s %s %s %s %s\n",
			styled(dimStyle, e.Timestamp.Local().Format("15:04:05")),
			styled(okStyle, e.Type),
			e.Filename,
			e.Source,
			humanSize(e.Size))
	}
}
