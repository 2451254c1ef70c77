package bot

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbot/internal/cache"
	"taskbot/internal/domain"
	"taskbot/internal/errors"
	"taskbot/internal/repository/sqlite"
	"taskbot/internal/services"
)

func setupHandler(t *testing.T) *Handler {
	t.Helper()

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))

	svc := services.NewTaskService(repo, cache.NewTaskCache(cache.NewMemory(), cache.Options{}), services.Options{})
	return NewHandler(svc, Options{Location: time.UTC})
}

func send(t *testing.T, h *Handler, owner int64, text string) Reply {
	t.Helper()
	return h.Handle(context.Background(), Message{OwnerID: owner, Text: text})
}

// failingService returns err from every call.
type failingService struct{ err error }

func (f failingService) Add(context.Context, int64, string) (*domain.Task, error) { return nil, f.err }
func (f failingService) List(context.Context, int64) ([]domain.Task, error) { return nil, f.err }
func (f failingService) Complete(context.Context, int64, int64) (bool, error) { return false, f.err }
func (f failingService) Delete(context.Context, int64, int64) (bool, error) { return false, f.err }
func (f failingService) ClearAll(context.Context, int64) (int64, error) { return 0, f.err }
func (f failingService) CompleteAll(context.Context, int64) (int64, error) { return 0, f.err }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input     string
		name      string
		args      string
		isCommand bool
	}{
		{"/list", "list", "", true},
		{"/done 3", "done", "3", true},
		{"/DONE   3 ", "done", "3", true},
		{"/done@taskbot 3", "done", "3", true},
		{"/add buy milk", "add", "buy milk", true},
		{"/add\nbuy milk", "add", "buy milk", true},
		{"buy milk", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, args, ok := parseCommand(tt.input)
			assert.Equal(t, tt.isCommand, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestConversation(t *testing.T) {
	h := setupHandler(t)

	assert.Equal(t, msgNoTasks, send(t, h, 42, "/list").Text)

	assert.Equal(t, "[✳️] Task #1 added!\nTask: buy milk", send(t, h, 42, "buy milk").Text)
	assert.Equal(t, "[✳️] Task #2 added!\nTask: call mom", send(t, h, 42, "/add call mom").Text)
	assert.Equal(t, "[✳️] Task #3 added!\nTask: pay rent", send(t, h, 42, "  pay rent  ").Text)

	assert.Equal(t, "[✅] Task #1 marked as done!", send(t, h, 42, "/done 1").Text)
	assert.Equal(t, "[❌] Task #2 deleted!", send(t, h, 42, "/delete 2").Text)

	list := send(t, h, 42, "/list").Text
	lines := strings.Split(list, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[✅] 1. buy milk ("), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[✳️] 2. pay rent ("), lines[1])

	assert.Equal(t, msgTaskNotFound, send(t, h, 42, "/done 99").Text)
	assert.Equal(t, msgTaskNotFound, send(t, h, 42, "/delete 99").Text)

	assert.Equal(t, "[✅] Marked as done: 1 tasks!", send(t, h, 42, "/done_all").Text)
	assert.Equal(t, msgNothingToMark, send(t, h, 42, "/done_all").Text)

	assert.Equal(t, "[❌] Deleted 2 tasks!", send(t, h, 42, "/clear_all").Text)
	assert.Equal(t, msgNothingToDelete, send(t, h, 42, "/clear_all").Text)
	assert.Equal(t, msgNoTasks, send(t, h, 42, "/list").Text)
}

func TestPositionArguments(t *testing.T) {
	h := setupHandler(t)

	assert.Equal(t, msgDoneUsage, send(t, h, 1, "/done").Text)
	assert.Equal(t, msgDoneUsage, send(t, h, 1, "/done 1 2").Text)
	assert.Equal(t, msgDeleteUsage, send(t, h, 1, "/delete").Text)
	assert.Equal(t, "Task number must be a positive integer.", send(t, h, 1, "/done abc").Text)
	assert.Equal(t, "Task number must be a positive integer.", send(t, h, 1, "/delete -1").Text)
	assert.Equal(t, "Task number must be a positive integer.", send(t, h, 1, "/delete 0").Text)
}

func TestHelpAndUnknown(t *testing.T) {
	h := setupHandler(t)

	assert.Equal(t, msgHelp, send(t, h, 1, "/start").Text)
	assert.Equal(t, msgHelp, send(t, h, 1, "/help").Text)
	assert.Equal(t, msgUnknownCommand, send(t, h, 1, "/frobnicate").Text)

	assert.Equal(t, msgNoTasks, send(t, h, 1, "/list").Text, "unknown commands never add tasks")
}

func TestEmptyAndInvalidText(t *testing.T) {
	h := setupHandler(t)

	assert.Equal(t, msgEmptyTask, send(t, h, 1, "   ").Text)
	assert.Equal(t, msgEmptyTask, send(t, h, 1, "/add").Text)
	assert.Contains(t, send(t, h, 1, strings.Repeat("x", 5000)).Text, "too long")
	assert.Contains(t, send(t, h, 1, "bad\x1b").Text, "control characters")
}

func TestExport(t *testing.T) {
	h := setupHandler(t)

	empty := send(t, h, 7, "/export")
	assert.Equal(t, msgNothingToExport, empty.Text)
	assert.Nil(t, empty.Document)

	send(t, h, 7, "buy milk")
	send(t, h, 7, "semi;colon")
	send(t, h, 7, "/done 1")

	reply := send(t, h, 7, "/export")
	require.NotNil(t, reply.Document)
	assert.Equal(t, "tasks_export.csv", reply.Document.Filename)
	assert.Equal(t, msgExportCaption, reply.Caption)

	lines := strings.Split(strings.TrimSuffix(string(reply.Document.Content), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Number;Status;Text;Created", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1;Done;buy milk;"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `2;Not done;"semi;colon";`), lines[2])
}

func TestOwnersDoNotSeeEachOther(t *testing.T) {
	h := setupHandler(t)

	send(t, h, 1, "mine")
	assert.Equal(t, msgNoTasks, send(t, h, 2, "/list").Text)
	assert.Equal(t, msgTaskNotFound, send(t, h, 2, "/delete 1").Text)
	assert.Contains(t, send(t, h, 1, "/list").Text, "1. mine")
}

func TestStoreFailuresAskToRetry(t *testing.T) {
	svc := failingService{err: errors.NewTimeoutError("list tasks", context.DeadlineExceeded)}
	h := NewHandler(svc, Options{})

	for _, text := range []string{"buy milk", "/list", "/done 1", "/delete 1", "/clear_all", "/done_all", "/export"} {
		reply := send(t, h, 1, text)
		assert.Equal(t, msgTryAgain, reply.Text, text)
	}
}

func TestPlainErrorAsksToRetry(t *testing.T) {
	h := NewHandler(failingService{err: stderrors.New("boom")}, Options{})
	assert.Equal(t, msgTryAgain, send(t, h, 1, "/list").Text)
}

func TestRegistryNames(t *testing.T) {
	h := setupHandler(t)
	assert.Equal(t,
		[]string{"add", "clear_all", "delete", "done", "done_all", "export", "help", "list", "start"},
		h.registry.Names())
}
