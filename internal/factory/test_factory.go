package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/quizarena/internal/dependencies/mocks"
	"github.com/mcoot/quizarena/internal/services/auth"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
	"github.com/mcoot/quizarena/internal/storage/memory"
	"github.com/mcoot/quizarena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"
	authCfg.BcryptCost = bcrypt.MinCost

	app := newWithDependencies(store, mockClock, mockRandom, Config{
		AuthConfig:        authCfg,
		MatchmakingConfig: matchmaking.DefaultConfig(),
	}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// testContent is a small seed with one question per topic
const testContent = `
topics:
  - id: 1
    name: Science
    questions:
      - {id: 1, text: "Symbol for gold?", options: [Ag, Au], answer: Au}
  - id: 2
    name: History
    questions:
      - {id: 1, text: "Year the Berlin Wall fell?", options: ["1989", "1991"], answer: "1989"}
  - id: 3
    name: Geography
    questions:
      - {id: 1, text: "Capital of Australia?", options: [Sydney, Canberra], answer: Canberra}
  - id: 4
    name: Computing
    questions:
      - {id: 1, text: "Bits in a byte?", options: ["8", "16"], answer: "8"}
  - id: 5
    name: Sports
    questions:
      - {id: 1, text: "Maximum snooker break?", options: ["147", "155"], answer: "147"}
`

// LoadTestContent seeds one question for each of topics 1 to 5
func (t *TestApp) LoadTestContent(ctx context.Context) error {
	return t.ContentService.Load(ctx, []byte(testContent))
}
