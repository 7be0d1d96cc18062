package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Open an event stream connection",
		Long: `Connect to the server's SSE endpoint and stream events in real-time.

The first event is "connected" and carries the connection id to pass to
"quizctl queue join --socket". Later events include:
  - queued: The connection joined the matchmaking queue
  - game_start: A match started, with its topic and questions
  - game_end: The match finished, with scores and outcome

Scores for a match played over this stream are submitted through the HTTP API.
Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func streamEvents(ctx context.Context, jsonOutput bool) error {
	streamURL, err := client.StreamURL("/events", false)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token := client.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	// No timeout: the stream lives as long as the connection
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var (
		currentEvent string
		dataLines    []string
	)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				printEvent(currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{Time: now, Event: event}
		if json.Valid([]byte(data)) {
			evt.Data = json.RawMessage(data)
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("15:04:05")
	switch event {
	case "connected":
		var payload struct {
			SocketID string `json:"socketId"`
		}
		if json.Unmarshal([]byte(data), &payload) == nil {
			fmt.Printf("[%s] connected as %s\n", timestamp, payload.SocketID)
			fmt.Printf("  join with: quizctl queue join --socket %s\n", payload.SocketID)
			return
		}
	case "game_start":
		var payload gameStart
		if json.Unmarshal([]byte(data), &payload) == nil {
			fmt.Printf("[%s] match %s started: %s, %d questions\n",
				timestamp, payload.GameID, payload.Topic.Name, len(payload.Questions))
			return
		}
	case "game_end":
		var payload gameEnd
		if json.Unmarshal([]byte(data), &payload) == nil {
			fmt.Printf("[%s] match %s ended (%s): %d - %d\n",
				timestamp, payload.GameID, payload.Reason, payload.Scores[0], payload.Scores[1])
			return
		}
	}

	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
}
