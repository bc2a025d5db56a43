package console

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/output"
)

func captureStdout(f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()
	f()
	_ = w.Close()
	os.Stdout = stdout
	return <-outC
}

func TestConsolePublish(t *testing.T) {
	c := NewConsole()
	ts := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	m := output.Measurement{PH: 6.92, Millivolts: 1515.25, Raw: 12122, Timestamp: ts}
	out := captureStdout(func() { _ = c.Publish(m) })
	want := "2026-08-12T09:30:00Z ph=6.92 millivolts=1515.250 raw=12122\n"
	if out != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", out, want)
	}
}

func TestConsolePublishWithTemperature(t *testing.T) {
	c := NewConsole()
	ts := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	temp := 21.5
	m := output.Measurement{PH: 7.00, Millivolts: 1500, Raw: 12000, TemperatureC: &temp, Timestamp: ts}
	out := captureStdout(func() { _ = c.Publish(m) })
	want := "2026-08-12T09:30:00Z ph=7.00 millivolts=1500.000 raw=12000 temperature=21.5\n"
	if out != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", out, want)
	}
}
