package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// Envelope is the websocket frame shape in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Question as delivered in game_start
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

type gameStart struct {
	GameID    string     `json:"gameId"`
	Message   string     `json:"message"`
	Questions []Question `json:"questions"`
	Topic     Topic      `json:"topic"`
	Deadline  int64      `json:"deadline"`
}

type gameEnd struct {
	GameID  string   `json:"gameId"`
	Message string   `json:"message"`
	Outcome int      `json:"outcome"`
	Reason  string   `json:"reason"`
	Scores  [2]int   `json:"scores"`
	Players [2]int64 `json:"players"`
}

type scoreSubmission struct {
	GameID         string `json:"gameId"`
	Score          int    `json:"score"`
	CompletionTime int64  `json:"completionTime,omitempty"`
}

func newPlayCmd() *cobra.Command {
	var (
		score   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Queue for a match and play it",
		Long: `Open a websocket connection, join the matchmaking queue and play one match.

Questions are answered interactively by option number unless --score is given,
in which case that score is submitted as soon as the match starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			p := &player{
				out:   NewOutput(cfg.Output),
				score: score,
				in:    os.Stdin,
			}
			return p.play(ctx)
		},
	}

	cmd.Flags().IntVar(&score, "score", -1, "Submit this score instead of answering questions")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Give up after this long")

	return cmd
}

type player struct {
	out   *Output
	score int
	in    io.Reader
	conn  *websocket.Conn
}

func (p *player) play(ctx context.Context) error {
	var me User
	if err := client.Get("/api/v1/auth/me", &me); err != nil {
		return err
	}

	wsURL, err := client.StreamURL("/ws", true)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	p.conn = conn
	defer func() { _ = conn.Close() }()

	frames := make(chan Envelope)
	readErr := make(chan error, 1)
	go func() {
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		start  *gameStart
		scores = make(chan int, 1)
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("connection closed: %w", err)
		case n := <-scores:
			if err := p.submit(start, n); err != nil {
				return err
			}
			p.out.Progress("Submitted score %d, waiting for opponent", n)
		case env := <-frames:
			switch env.Event {
			case "connected":
				var payload struct {
					SocketID string `json:"socketId"`
				}
				if err := json.Unmarshal(env.Data, &payload); err != nil {
					return fmt.Errorf("malformed connected event: %w", err)
				}
				p.out.Progress("Connected as %s", payload.SocketID)
				var result Message
				path := "/api/v1/queue/join?socketId=" + url.QueryEscape(payload.SocketID)
				if err := client.Post(path, nil, &result); err != nil {
					return err
				}
			case "queued":
				p.out.Progress("Waiting for an opponent...")
			case "game_start":
				start = &gameStart{}
				if err := json.Unmarshal(env.Data, start); err != nil {
					return fmt.Errorf("malformed game_start event: %w", err)
				}
				p.out.Progress("Match %s started: %s (%d questions)", start.GameID, start.Topic.Name, len(start.Questions))
				go func(g *gameStart) {
					scores <- p.answer(ctx, g)
				}(start)
			case "game_end":
				var end gameEnd
				if err := json.Unmarshal(env.Data, &end); err != nil {
					return fmt.Errorf("malformed game_end event: %w", err)
				}
				p.out.Print(playResult(me.ID, start, end))
				p.closeNormally()
				return nil
			case "error":
				var payload Message
				_ = json.Unmarshal(env.Data, &payload)
				fmt.Fprintf(os.Stderr, "server: %s\n", payload.Message)
			}
		}
	}
}

// answer returns the score to submit: the fixed --score, or the number of
// questions the user answers correctly on stdin
func (p *player) answer(ctx context.Context, g *gameStart) int {
	if p.score >= 0 {
		return p.score
	}

	reader := bufio.NewReader(p.in)
	correct := 0
	for i, q := range g.Questions {
		if ctx.Err() != nil {
			break
		}
		fmt.Printf("\nQ%d. %s\n", i+1, q.Text)
		for j, opt := range q.Options {
			fmt.Printf("  %d) %s\n", j+1, opt)
		}
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if choice, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil &&
			choice >= 1 && choice <= len(q.Options) && q.Options[choice-1] == q.Answer {
			correct++
		}
		if err != nil {
			break
		}
	}
	return correct
}

func (p *player) submit(g *gameStart, score int) error {
	if g == nil {
		return errors.New("no match in progress")
	}
	data, err := json.Marshal(scoreSubmission{
		GameID:         g.GameID,
		Score:          score,
		CompletionTime: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	if err := p.conn.WriteJSON(Envelope{Event: "game_end", Data: data}); err != nil {
		return fmt.Errorf("failed to submit score: %w", err)
	}
	return nil
}

func (p *player) closeNormally() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func playResult(me int64, start *gameStart, end gameEnd) PlayResult {
	seat := 0
	if end.Players[1] == me {
		seat = 1
	}

	result := PlayResult{
		GameID:  end.GameID,
		Reason:  end.Reason,
		Scores:  end.Scores,
		Players: end.Players,
		Seat:    seat,
	}
	if start != nil {
		result.Topic = start.Topic.Name
		result.Questions = len(start.Questions)
	}

	switch end.Outcome {
	case 0:
		result.Result = "tie"
	case seat + 1:
		result.Result = "won"
	default:
		result.Result = "lost"
	}
	return result
}
