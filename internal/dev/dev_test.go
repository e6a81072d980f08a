package dev

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plain-reactive/plain/internal/config"
)

func startWatcher(t *testing.T, dir string) <-chan Change {
	t.Helper()
	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{dir},
		Debounce: 20 * time.Millisecond,
	})

	changes := make(chan Change, 10)
	watcher.OnChange(func(c Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		watcher.Stop()
	})
	go watcher.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for !watcher.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// fsnotify registers directories after Start flips running.
	time.Sleep(50 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for change")
		return Change{}
	}
}

func TestWatcher_Modify(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "card.css")
	if err := os.WriteFile(testFile, []byte(".a{}"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, tmpDir)

	if err := os.WriteFile(testFile, []byte(".b{}"), 0644); err != nil {
		t.Fatal(err)
	}

	change := waitChange(t, changes)
	if change.Type != ChangeStyle {
		t.Errorf("Type = %v, want %v", change.Type, ChangeStyle)
	}
	if change.Path != testFile {
		t.Errorf("Path = %q, want %q", change.Path, testFile)
	}
	if change.Removed {
		t.Error("Removed = true, want false")
	}
}

func TestWatcher_NewFileInNewDir(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, tmpDir)

	sub := filepath.Join(tmpDir, "pages")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// The directory event comes first and registers the new directory.
	if c := waitChange(t, changes); c.Path != sub {
		t.Fatalf("Path = %q, want %q", c.Path, sub)
	}

	newFile := filepath.Join(sub, "home.html")
	if err := os.WriteFile(newFile, []byte("<p>x</p>"), 0644); err != nil {
		t.Fatal(err)
	}

	change := waitChange(t, changes)
	if change.Path != newFile {
		t.Errorf("Path = %q, want %q", change.Path, newFile)
	}
	if change.Type != ChangeMarkup {
		t.Errorf("Type = %v, want %v", change.Type, ChangeMarkup)
	}
}

func TestWatcher_Remove(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "gone.css")
	if err := os.WriteFile(testFile, []byte(".a{}"), 0644); err != nil {
		t.Fatal(err)
	}
	changes := startWatcher(t, tmpDir)

	if err := os.Remove(testFile); err != nil {
		t.Fatal(err)
	}
	change := waitChange(t, changes)
	if !change.Removed {
		t.Error("Removed = false, want true")
	}
}

func TestWatcher_Ignore(t *testing.T) {
	tmpDir := t.TempDir()

	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{tmpDir},
		Ignore: []string{"*.swp", "node_modules"},
	})

	if !watcher.shouldIgnore(filepath.Join(tmpDir, "card.css.swp")) {
		t.Error("Should ignore *.swp files")
	}
	if !watcher.shouldIgnore(filepath.Join(tmpDir, "node_modules", "x.css")) {
		t.Error("Should ignore node_modules directory")
	}
	if watcher.shouldIgnore(filepath.Join(tmpDir, "card.css")) {
		t.Error("Should not ignore card.css")
	}
}

func TestWatcher_IgnoreSegments(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{"."},
		Ignore: []string{"tmp", "build/out"},
	})

	if !watcher.shouldIgnore(filepath.Join("foo", "tmp", "bar.css")) {
		t.Error("Should ignore tmp directory segment")
	}
	if watcher.shouldIgnore(filepath.Join("foo", "attempt.css")) {
		t.Error("Should not ignore substring match")
	}
	if !watcher.shouldIgnore(filepath.Join("a", "build", "out", "x.css")) {
		t.Error("Should ignore build/out segments")
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"card.css", ChangeStyle},
		{"CARD.CSS", ChangeStyle},
		{"home.html", ChangeMarkup},
		{"intro.md", ChangeMarkdown},
		{"plain.json", ChangeConfig},
		{"sub/plain.yaml", ChangeConfig},
		{"image.png", ChangeAsset},
		{"data.json", ChangeAsset},
	}

	for _, tt := range tests {
		got := classifyChange(tt.path)
		if got != tt.want {
			t.Errorf("classifyChange(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_IsRunning(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Paths: []string{"."},
	})

	if watcher.IsRunning() {
		t.Error("Watcher should not be running initially")
	}
}

func TestCollectWatchPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.New()
	cfg.Page = "index.html"
	cfg.Routes = map[string]string{
		"/":      "pages/home.html",
		"/about": "pages/about.html",
		"/ext":   "https://example.test/ext.html",
	}
	cfg.Docs.Base = "s3://bucket/docs"
	if err := cfg.SaveTo(filepath.Join(tmpDir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	got := CollectWatchPaths(cfg)
	want := map[string]bool{
		filepath.Join(tmpDir, "styles"): true,
		tmpDir:                          true,
		filepath.Join(tmpDir, "pages"):  true,
	}
	if len(got) != len(want) {
		t.Fatalf("CollectWatchPaths() = %v, want %d paths", got, len(want))
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected watch path %q", p)
		}
	}
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := hub.Accept(w, r)
		if err != nil {
			return
		}
		defer hub.Remove(c)
		for {
			if _, _, err := c.Conn().ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	a := dialHub(t, hub)
	b := dialHub(t, hub)
	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", hub.ClientCount())
	}

	hub.NotifyReload("card.css")

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg ReloadMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type != ReloadTypeFull || msg.File != "card.css" {
			t.Errorf("message = %+v, want reload of card.css", msg)
		}
	}
}

func TestHub_RemoveOnDisconnect(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after disconnect, want 0", hub.ClientCount())
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	hub.Close()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() after Close should fail")
	}
}
