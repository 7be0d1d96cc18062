package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/quizarena/internal/api"
	"github.com/mcoot/quizarena/internal/factory"
	"github.com/mcoot/quizarena/internal/services/auth"
	"github.com/mcoot/quizarena/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "quizctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/quizctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

// withTokenFile returns a runner sharing the binary but not the saved token
func (r *cliRunner) withTokenFile(path string) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		tokenFile:  path,
	}
}

func (r *cliRunner) args(args ...string) []string {
	return append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args...)...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// runStdout keeps stderr out of the parsed output
func (r *cliRunner) runStdout(args ...string) (string, string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	projectRoot := findProjectRoot(t)
	logger := testutil.NopLogger()
	ctx, cancel := context.WithCancel(context.Background())

	app, err := factory.New(ctx, factory.Config{
		AuthConfig: auth.Config{
			Secret:     "e2e-secret",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		ContentSeedPath: filepath.Join(projectRoot, "data/topics.yaml"),
		Logger:          logger,
	})
	require.NoError(t, err)

	go func() { _ = app.Orchestrator.Run(ctx) }()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Clock:              app.Clock,
		AuthService:        app.AuthService,
		Orchestrator:       app.Orchestrator,
		Hub:                app.Hub,
		LeaderboardService: app.LeaderboardService,
		ContentService:     app.ContentService,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		app:    app,
		addr:   serverURL,
		shutdown: func() {
			app.Hub.Close()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
			cancel()
			<-app.Orchestrator.Done()
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type playResponse struct {
	GameID    string   `json:"game_id"`
	Topic     string   `json:"topic"`
	Result    string   `json:"result"`
	Reason    string   `json:"reason"`
	Scores    [2]int   `json:"scores"`
	Players   [2]int64 `json:"players"`
	Seat      int      `json:"seat"`
	Questions int      `json:"questions"`
}

type resultResponse struct {
	SessionID string   `json:"session_id"`
	Players   [2]int64 `json:"players"`
	Scores    [2]int   `json:"scores"`
	Winner    *int64   `json:"winner"`
	Reason    string   `json:"reason"`
}

type leaderboardResponse struct {
	Entries []struct {
		Rank     int    `json:"rank"`
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
		Points   int    `json:"points"`
		Wins     int    `json:"wins"`
		Losses   int    `json:"losses"`
	} `json:"entries"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func signUp(t *testing.T, cli *cliRunner, name string) authResponse {
	t.Helper()

	output, err := cli.run("account", "register", "--user", name, "--email", name+"@example.com", "--pass", "password123")
	require.NoError(t, err, "output: %s", output)

	var reg registerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &reg))
	assert.Equal(t, name, reg.User.Username)

	output, err = cli.run("account", "login", "--email", name+"@example.com", "--pass", "password123")
	require.NoError(t, err, "output: %s", output)

	var auth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth))
	require.NotEmpty(t, auth.Token)
	return auth
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AccountCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	auth := signUp(t, cli, "alice")

	// Token should be saved in the token file
	output, err := cli.run("account", "me")
	require.NoError(t, err, "output: %s", output)

	var me userResponse
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, auth.User.ID, me.ID)

	// Explicit token overrides the file
	output, err = cli.runWithToken(auth.Token, "account", "me")
	require.NoError(t, err, "output: %s", output)
}

func TestCLI_PublicCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("topics")
	require.NoError(t, err, "output: %s", output)
	var topics struct {
		Topics []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &topics))
	assert.Len(t, topics.Topics, 5)

	output, err = cli.run("status")
	require.NoError(t, err, "output: %s", output)
	var status struct {
		Queued         int `json:"queued"`
		ActiveSessions int `json:"active_sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &status))
	assert.Zero(t, status.Queued)
	assert.Zero(t, status.ActiveSessions)

	output, err = cli.run("leaderboard")
	require.NoError(t, err, "output: %s", output)
	var board leaderboardResponse
	require.NoError(t, json.Unmarshal([]byte(output), &board))
	assert.Empty(t, board.Entries)
}

func TestCLI_PlayMatch(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli1 := newCLIRunner(t, ts.addr)
	cli2 := cli1.withTokenFile(filepath.Join(t.TempDir(), "token2"))

	alice := signUp(t, cli1, "alice")
	bob := signUp(t, cli2, "bob")

	type played struct {
		stdout, stderr string
		err            error
	}
	var (
		wg      sync.WaitGroup
		results [2]played
	)
	for i, run := range []struct {
		cli   *cliRunner
		score string
	}{
		{cli1, "3"},
		{cli2, "1"},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stdout, stderr, err := run.cli.runStdout("play", "--score", run.score, "--timeout", "30s")
			results[i] = played{stdout, stderr, err}
		}()
	}
	wg.Wait()

	var outcomes [2]playResponse
	for i, r := range results {
		require.NoError(t, r.err, "stderr: %s", r.stderr)
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &outcomes[i]))
	}

	assert.Equal(t, "won", outcomes[0].Result)
	assert.Equal(t, "lost", outcomes[1].Result)
	assert.Equal(t, "both_submitted", outcomes[0].Reason)
	assert.Equal(t, outcomes[0].GameID, outcomes[1].GameID)
	assert.NotEmpty(t, outcomes[0].Topic)
	assert.Positive(t, outcomes[0].Questions)
	assert.ElementsMatch(t, []int64{alice.User.ID, bob.User.ID}, outcomes[0].Players[:])

	// The result is written after game_end is delivered
	var result resultResponse
	require.Eventually(t, func() bool {
		output, err := cli1.run("result", outcomes[0].GameID)
		if err != nil {
			return false
		}
		return json.Unmarshal([]byte(output), &result) == nil
	}, 5*time.Second, 50*time.Millisecond)
	require.NotNil(t, result.Winner)
	assert.Equal(t, alice.User.ID, *result.Winner)

	output, err := cli1.run("leaderboard", "--limit", "1")
	require.NoError(t, err, "output: %s", output)
	var board leaderboardResponse
	require.NoError(t, json.Unmarshal([]byte(output), &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "alice", board.Entries[0].Username)
	assert.Equal(t, 1, board.Entries[0].Wins)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Requires a token
	output, err := cli.run("account", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	signUp(t, cli, "alice")

	// Unknown connection
	output, err = cli.run("queue", "join", "--socket", "nope")
	assert.Error(t, err)
	assert.Contains(t, output, "MISSING_CONNECTION")

	// Unknown result
	output, err = cli.run("result", "missing")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")
}
