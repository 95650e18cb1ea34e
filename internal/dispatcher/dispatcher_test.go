package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.add("DEBUG", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.add("INFO", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.add("ERROR", msg, keysAndValues)
}

func (l *testLogger) add(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got struct {
		Cursor float64 `json:"cursor"`
	}
	d.Register("timeline.cursor", func(e Event) (any, error) {
		if e.Timestamp.IsZero() {
			t.Error("timestamp not stamped")
		}
		return "result", e.Decode(&got)
	})

	result, err := d.Dispatch(Event{Command: "timeline.cursor", Payload: json.RawMessage(`{"cursor": 42.5}`)})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
	if got.Cursor != 42.5 {
		t.Errorf("expected cursor 42.5, got %v", got.Cursor)
	}
}

func TestEvent_Decode(t *testing.T) {
	var v struct{ A int }
	if err := (Event{}).Decode(&v); err != nil {
		t.Errorf("empty payload: %v", err)
	}
	err := Event{Command: "item.move", Payload: json.RawMessage(`{"A": "x"}`)}.Decode(&v)
	if err == nil || !strings.Contains(err.Error(), "item.move") {
		t.Errorf("expected decode error naming the command, got %v", err)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: "nope"})

	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register("item.move", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: "item.move"})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != "queued" {
			t.Errorf("expected 'queued', got %v", result)
		}
	}

	wg.Wait()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("full", func(e Event) (any, error) {
		started <- struct{}{}
		<-block
		return nil, nil
	}, Buffered(2))
	defer close(block)

	d.Dispatch(Event{Command: "full"})
	<-started // worker now holds the first event

	d.Dispatch(Event{Command: "full"})
	d.Dispatch(Event{Command: "full"})

	_, err := d.Dispatch(Event{Command: "full"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("blocking", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: "blocking"})
	<-started
	d.Dispatch(Event{Command: "blocking"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_BufferedErrorLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var wg sync.WaitGroup
	wg.Add(1)
	d.Register("fails", func(e Event) (any, error) {
		defer wg.Done()
		return nil, errors.New("boom")
	}, Buffered(1))

	d.Dispatch(Event{Command: "fails"})
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for logger.count("ERROR") == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if logger.count("ERROR") == 0 {
		t.Error("expected buffered failure to be logged")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("logged", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	before := logger.count("DEBUG")
	d.Dispatch(Event{Command: "logged", Payload: json.RawMessage(`{}`)})

	if got := logger.count("DEBUG") - before; got < 2 {
		t.Errorf("expected at least 2 debug messages, got %d", got)
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("error", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Command: "error"})

	if logger.count("ERROR") == 0 {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasHandlerAndCommands(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("exists", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler("exists") {
		t.Error("expected handler to exist")
	}
	if d.HasHandler("missing") {
		t.Error("expected handler to not exist")
	}
	if cmds := d.Commands(); len(cmds) != 1 || cmds[0] != "exists" {
		t.Errorf("unexpected commands %v", cmds)
	}
}

func TestDispatcher_Close(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("buffered", func(e Event) (any, error) { return nil, nil }, Buffered(4))
	d.Close()
	d.Close()

	if d.HasHandler("buffered") {
		t.Error("handlers should be cleared on Close")
	}
	if _, err := d.Dispatch(Event{Command: "buffered"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand after Close, got %v", err)
	}
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	d.Register("combined", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: "combined"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "queued" {
		t.Errorf("expected 'queued', got %v", result)
	}

	wg.Wait()

	if processed.Load() != 1 {
		t.Errorf("expected 1 processed, got %d", processed.Load())
	}
	if logger.count("DEBUG") < 2 {
		t.Errorf("expected log messages, got %d", logger.count("DEBUG"))
	}
}
