package ui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"proxysweep/pkg/api"
	"proxysweep/pkg/models"
	"proxysweep/pkg/runner"
)

func testModel(t *testing.T) Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := api.NewClient("http://127.0.0.1:1", "", "", logger)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return NewModel(runner.New(client, logger), "my-session", nil)
}

// runInit executes the Init command tree and returns every produced
// message.
func runInit(t *testing.T, m Model) []tea.Msg {
	t.Helper()
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned no command")
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, c())
	}
	return msgs
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestInit_StartsRunFromEventLoop(t *testing.T) {
	// The start function may only run as an Init command, once the
	// program's event loop is receiving; calling it before Run would
	// block its first update on an unread Send.
	m := testModel(t)
	started := false
	m.start = func() error {
		started = true
		return nil
	}

	if started {
		t.Fatal("constructing the model must not start the run")
	}
	runInit(t, m)
	if !started {
		t.Fatal("Init commands must start the run")
	}
}

func TestInit_StartFailureQuitsWithError(t *testing.T) {
	m := testModel(t)
	m.start = func() error { return runner.ErrValidation }

	var failure tea.Msg
	for _, msg := range runInit(t, m) {
		if _, ok := msg.(startFailedMsg); ok {
			failure = msg
		}
	}
	if failure == nil {
		t.Fatal("a failed start must surface as a message")
	}

	next, cmd := m.Update(failure)
	if !isQuit(t, cmd) {
		t.Error("a failed start must end the program")
	}
	final := next.(Model)
	if final.Err() == nil {
		t.Error("the failure must be readable after Run returns")
	}
	if !strings.Contains(final.View(), "could not start") {
		t.Error("final frame must mention the start failure")
	}
}

func TestUpdate_QuitWhenNotRunning(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !isQuit(t, cmd) {
		t.Error("q while idle must quit")
	}
}

func TestUpdate_QuitOnDoneSnapshot(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(SnapshotMsg{State: models.StateDone})
	if !isQuit(t, cmd) {
		t.Error("a done snapshot must end the program")
	}
}

func TestUpdate_StopDoesNotQuitMidRun(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(SnapshotMsg{State: models.StateRunning})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if isQuit(t, cmd) {
		t.Error("q mid-run must request a stop, not quit outright")
	}
	if !strings.Contains(next.(Model).View(), "stopping") {
		t.Error("view must show the stop is in flight")
	}
}

func TestView_RunningShowsLiveState(t *testing.T) {
	m := testModel(t)
	latency := 120
	next, _ := m.Update(SnapshotMsg{
		State: models.StateRunning,
		Results: []models.ProxyResult{
			{ProxyIP: "1.2.3.4", ProxyPort: "80", Status: models.StatusOK, ResponseTimeMs: &latency},
			{ProxyIP: "5.6.7.8", ProxyPort: "81", Status: models.StatusFail, Error: "refused"},
		},
		Stats:    models.RunStats{Total: 2, Alive: 1, Dead: 1, AvgLatency: &latency},
		Progress: models.Progress{Completed: 2, Total: 10},
		Elapsed:  65 * time.Second,
	})
	view := next.(Model).View()
	for _, want := range []string{"my-session", "1.2.3.4:80", "refused", "alive 1", "dead 1", "avg 120ms", "2/10", "01:05"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestView_DoneShowsError(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(SnapshotMsg{State: models.StateRunning})
	// done with a transport error stays visible in the final frame
	m2 := next.(Model)
	m2.snap = runner.Snapshot{State: models.StateDone, Err: io.ErrUnexpectedEOF}
	if !strings.Contains(m2.View(), "run failed") {
		t.Error("final frame must surface the transport error")
	}
}
