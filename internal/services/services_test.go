package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/auth"
	"taskmanager/internal/db"
	"taskmanager/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type sentMail struct {
	kind string
	to   string
	name string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) NotifyWelcome(_ context.Context, to, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{"welcome", to, name})
	return n.err
}

func (n *fakeNotifier) NotifyCancellation(_ context.Context, to, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{"cancellation", to, name})
	return n.err
}

type testEnv struct {
	database    *db.DB
	tokens      *db.SessionTokenRepository
	tasksRepo   *db.TaskRepository
	notifier    *fakeNotifier
	credentials *CredentialStore
	sessions    *SessionManager
	accounts    *AccountService
	tasks       *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	users := db.NewUserRepository(database)
	tokens := db.NewSessionTokenRepository(database)
	tasks := db.NewTaskRepository(database)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	notifier := &fakeNotifier{}

	return &testEnv{
		database:    database,
		tokens:      tokens,
		tasksRepo:   tasks,
		notifier:    notifier,
		credentials: NewCredentialStore(users, hasher, notifier),
		sessions:    NewSessionManager(auth.NewTokenSigner(testSecret, 0), users, tokens),
		accounts:    NewAccountService(database, users, tokens, tasks, hasher, notifier, 32),
		tasks:       NewTaskService(tasks),
	}
}

func (e *testEnv) register(t *testing.T, name, email string) *models.User {
	t.Helper()

	user, err := e.credentials.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: "secret12",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := e.sessions.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	return token
}
