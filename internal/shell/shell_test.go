package shell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmaster/internal/db"
	"stockmaster/internal/listview"
)

type scriptedPrompter struct {
	choice   Choice
	open     string
	save     string
	err      error
	asked    []string
	suggests []string
}

func (p *scriptedPrompter) Choose(q string, _ []Choice) (Choice, error) {
	p.asked = append(p.asked, q)
	return p.choice, p.err
}

func (p *scriptedPrompter) OpenFile(title string) (string, error) {
	p.asked = append(p.asked, title)
	return p.open, nil
}

func (p *scriptedPrompter) SaveFile(title, suggested string) (string, error) {
	p.asked = append(p.asked, title)
	p.suggests = append(p.suggests, suggested)
	return p.save, nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []listview.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n listview.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func preserveRuntime(t *testing.T) {
	t.Helper()
	loc := time.Local
	limit := debug.SetMemoryLimit(-1)
	t.Cleanup(func() {
		time.Local = loc
		debug.SetMemoryLimit(limit)
	})
}

func TestBuildLayout(t *testing.T) {
	l := BuildLayout(Defaults())
	assert.Equal(t, "StockMaster", l.Window.Title)
	assert.Equal(t, 1080, l.Window.Width)
	assert.Equal(t, 900, l.Window.MinHeight)
	assert.True(t, l.Window.Fullscreen)
	assert.False(t, l.Window.DevTools)
	assert.False(t, l.Window.Maximizable)
	require.Len(t, l.Menus, 4)
	assert.Equal(t, "app", l.Menus[0].Role)
	about := l.Menus[3]
	assert.Equal(t, "About", about.Label)
	require.Len(t, about.Items, 3)
	assert.Equal(t, "Github", about.Items[0].Label)
	assert.True(t, about.Items[1].Separator)
	assert.Equal(t, "Docs", about.Items[2].Label)
	assert.Nil(t, l.MenuBar)
}

func TestSetConnectivity(t *testing.T) {
	l := BuildLayout(Defaults())
	l.SetConnectivity(false)
	assert.Equal(t, LabelOffline, l.MenuBar.Label)
	assert.Len(t, l.Menus, 4)

	l.SetConnectivity(true)
	l.SetConnectivity(true)
	assert.Equal(t, LabelOnline, l.MenuBar.Label)
	require.Len(t, l.Menus, 5, "unsaved data menu added once")
	assert.Equal(t, MenuUnsavedData, l.Menus[4].Label)
	assert.Equal(t, EventUnsavedCheck, l.Menus[4].Items[0].Event)
}

func TestResolveDatabase_ExistingFileNeedsNoPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.sqlite")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	p := &scriptedPrompter{}

	got, err := ResolveDatabase(path, p)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Empty(t, p.asked)
}

func TestResolveDatabase_MemoryAndDirectories(t *testing.T) {
	p := &scriptedPrompter{choice: ChoiceCancel}
	got, err := ResolveDatabase(db.MemoryPath, p)
	require.NoError(t, err)
	assert.Equal(t, db.MemoryPath, got)
	assert.Empty(t, p.asked)

	_, err = ResolveDatabase(t.TempDir(), p)
	assert.ErrorIs(t, err, ErrCancelled, "a directory is not a database file")
	assert.Equal(t, []string{MissingDatabaseQuestion}, p.asked)
}

func TestResolveDatabase_Create(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "app.sqlite")
	target := filepath.Join(dir, "nested", "new.sqlite")
	p := &scriptedPrompter{choice: ChoiceCreate, save: target}

	got, err := ResolveDatabase(missing, p)
	require.NoError(t, err)
	assert.Equal(t, target, got)
	assert.FileExists(t, target)
	assert.Equal(t, []string{missing}, p.suggests)
	assert.Equal(t, MissingDatabaseQuestion, p.asked[0])
}

func TestResolveDatabase_Open(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "other.sqlite")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	got, err := ResolveDatabase(filepath.Join(dir, "app.sqlite"), &scriptedPrompter{choice: ChoiceOpen, open: existing})
	require.NoError(t, err)
	assert.Equal(t, existing, got)

	_, err = ResolveDatabase(filepath.Join(dir, "app.sqlite"), &scriptedPrompter{choice: ChoiceOpen, open: filepath.Join(dir, "nope.sqlite")})
	assert.Error(t, err)
}

func TestResolveDatabase_Cancelled(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "app.sqlite")
	tests := []struct {
		name string
		p    *scriptedPrompter
	}{
		{"cancel", &scriptedPrompter{choice: ChoiceCancel}},
		{"open dismissed", &scriptedPrompter{choice: ChoiceOpen}},
		{"save dismissed", &scriptedPrompter{choice: ChoiceCreate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveDatabase(missing, tt.p)
			assert.ErrorIs(t, err, ErrCancelled)
			assert.NoFileExists(t, missing)
		})
	}

	boom := errors.New("no tty")
	_, err := ResolveDatabase(missing, &scriptedPrompter{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestResolveDatabase_AutoPrompterCreatesAtPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "data", "app.sqlite")
	got, err := ResolveDatabase(missing, AutoPrompter{})
	require.NoError(t, err)
	assert.Equal(t, missing, got)
	assert.FileExists(t, missing)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"512M", 512 << 20, true},
		{"20m", 20 << 20, true},
		{"1G", 1 << 30, true},
		{"64K", 64 << 10, true},
		{"1024", 1024, true},
		{"-1", -1, true},
		{"", 0, false},
		{"lots", 0, false},
		{"-5M", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRuntimeLimits(t *testing.T) {
	l, err := Defaults().Runtime.Limits()
	require.NoError(t, err)
	assert.Equal(t, int64(512<<20), l.MemoryLimit)
	assert.Equal(t, int64(20<<20), l.MaxUploadBytes)
	assert.Equal(t, 20, l.MaxFileUploads)
	assert.Equal(t, 10*time.Hour, l.RequestTimeout)
	assert.Equal(t, "America/New_York", l.Location.String())

	rt := Defaults().Runtime
	rt.UploadMaxFilesize = "100M"
	l, err = rt.Limits()
	require.NoError(t, err)
	assert.Equal(t, int64(20<<20), l.MaxUploadBytes, "uploads never exceed the request body limit")

	rt = Defaults().Runtime
	rt.DefaultCharset = "ISO-8859-1"
	_, err = rt.Limits()
	assert.Error(t, err)

	rt = Defaults().Runtime
	rt.Timezone = "Mars/Olympus"
	_, err = rt.Limits()
	assert.Error(t, err)
}

func TestApplyRuntime(t *testing.T) {
	preserveRuntime(t)
	_, err := ApplyRuntime(Defaults().Runtime)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", time.Local.String())
	assert.Equal(t, int64(512<<20), debug.SetMemoryLimit(-1))
}

func TestProbe(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	ctx := context.Background()
	assert.True(t, Probe(ctx, ok.Client(), ok.URL, time.Second))
	assert.False(t, Probe(ctx, down.Client(), down.URL, time.Second))

	start := time.Now()
	assert.False(t, Probe(ctx, slow.Client(), slow.URL, 50*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, Probe(ctx, nil, "http://127.0.0.1:1", 200*time.Millisecond))
}

func TestBoot(t *testing.T) {
	preserveRuntime(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := Defaults()
	cfg.ProbeURL = srv.URL
	path := filepath.Join(t.TempDir(), "app.sqlite")
	n := &recordingNotifier{}

	st, err := Boot(context.Background(), cfg, path, Deps{
		Prompter: AutoPrompter{},
		Notifier: n,
		Client:   srv.Client(),
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.True(t, st.Online)
	assert.Equal(t, path, st.Database)
	assert.Equal(t, int32(1), hits.Load(), "probe runs once")
	assert.Equal(t, LabelOnline, st.Layout.MenuBar.Label)
	require.Len(t, n.got, 1)
	assert.Equal(t, OnlineNotification.Title, n.got[0].Title)
}

func TestBoot_Offline(t *testing.T) {
	preserveRuntime(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := Defaults()
	cfg.ProbeURL = srv.URL
	n := &recordingNotifier{}
	st, err := Boot(context.Background(), cfg, filepath.Join(t.TempDir(), "app.sqlite"), Deps{
		Prompter: AutoPrompter{},
		Notifier: n,
		Client:   srv.Client(),
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.False(t, st.Online)
	assert.Equal(t, LabelOffline, st.Layout.MenuBar.Label)
	assert.Len(t, st.Layout.Menus, 4)
	require.Len(t, n.got, 1)
	assert.Equal(t, "🛑 Not connected", n.got[0].Title)
	assert.Equal(t, "No Internet Connection.", n.got[0].Message)
}

func TestBoot_CancelledDatabase(t *testing.T) {
	preserveRuntime(t)
	n := &recordingNotifier{}
	_, err := Boot(context.Background(), Defaults(), filepath.Join(t.TempDir(), "app.sqlite"), Deps{
		Prompter: &scriptedPrompter{choice: ChoiceCancel},
		Notifier: n,
		Log:      zerolog.Nop(),
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, n.got)
}

func TestChoiceModel(t *testing.T) {
	var m tea.Model = newChoiceModel("pick", []Choice{ChoiceOpen, ChoiceCreate, ChoiceCancel})
	assert.Contains(t, m.View(), "> Open")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Contains(t, m.View(), "> Create")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cm := m.(choiceModel)
	assert.True(t, cm.done)
	assert.Equal(t, ChoiceCreate, cm.choices[cm.cursor])

	m, _ = newChoiceModel("pick", []Choice{ChoiceOpen}).Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.(choiceModel).aborted)
}

func TestPathModel(t *testing.T) {
	var m tea.Model = newPathModel("Create", "data/app.sqlite")
	assert.Contains(t, m.View(), "Create")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pm := m.(pathModel)
	assert.True(t, pm.done)
	assert.Equal(t, "data/app.sqlite3", pm.input.Value())

	m, _ = newPathModel("Open", "").Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.(pathModel).aborted)
}
