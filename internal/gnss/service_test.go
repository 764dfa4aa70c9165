package gnss

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gnsswatch/internal/fix"
	"gnsswatch/internal/nmea"
	"gnsswatch/internal/source"
)

func line(payload string) string {
	return fmt.Sprintf("$%s*%02X", payload, nmea.Checksum(payload))
}

// steppedClock returns t0, t0+1s, t0+2s, ... on successive calls.
func steppedClock() func() time.Time {
	t0 := time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		t := t0.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func TestRun_ContinuousEmitsPerCompleteFix(t *testing.T) {
	input := strings.Join([]string{
		line("GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"),
		line("GPGGA,120001,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
	}, "\n")

	svc := New(Config{Now: steppedClock()})
	var got []fix.Record
	svc.AddSink(func(r fix.Record) { got = append(got, r) })

	if err := svc.Run(context.Background(), source.NewReader(strings.NewReader(input))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("emissions=%d want 2", len(got))
	}
	if got[0].FixQuality != nil {
		t.Fatalf("first emission should predate GGA")
	}
	if got[1].FixQuality == nil || *got[1].FixQuality != 1 {
		t.Fatalf("second emission missing GGA fields")
	}

	c := svc.Counters()
	if c.Lines != 2 || c.ValidFrames != 2 || c.Emissions != 2 {
		t.Fatalf("counters=%+v", c)
	}
}

func TestRun_OnceSelectsFullerSnapshot(t *testing.T) {
	input := strings.Join([]string{
		line("GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"),
		line("GPGGA,120001,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
		// Trailing sentences must not be consumed after the collector is done.
		line("GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1"),
	}, "\n")

	svc := New(Config{Once: true, Now: steppedClock()})
	var got []fix.Record
	svc.AddSink(func(r fix.Record) { got = append(got, r) })

	if err := svc.Run(context.Background(), source.NewReader(strings.NewReader(input))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("once mode delivered %d snapshots, want 1", len(got))
	}
	// The second snapshot carries the GGA fields and is the fuller one.
	if got[0].FixQuality == nil || got[0].AltM == nil {
		t.Fatalf("selected snapshot missing GGA fields: %+v", got[0])
	}
	if c := svc.Counters(); c.Lines != 2 {
		t.Fatalf("lines=%d want 2 (stop reading once done)", c.Lines)
	}
}

func TestRun_OnceFinishesOnEarlyEOF(t *testing.T) {
	input := line("GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")

	svc := New(Config{Once: true, Now: steppedClock()})
	var got []fix.Record
	svc.AddSink(func(r fix.Record) { got = append(got, r) })

	if err := svc.Run(context.Background(), source.NewReader(strings.NewReader(input))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the single collected snapshot, got %d", len(got))
	}
}

func TestRun_RawSinkSeesEveryValidLine(t *testing.T) {
	zda := line("GPZDA,120000,23,03,1994,00,00")
	rmcPayload := "GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	rmc := line(rmcPayload)
	badChecksum := fmt.Sprintf("$%s*%02X", rmcPayload, nmea.Checksum(rmcPayload)^0xFF)

	input := strings.Join([]string{badChecksum, zda, rmc}, "\n")

	svc := New(Config{Now: steppedClock()})
	var raw []string
	svc.AddRawSink(func(s string) { raw = append(raw, s) })

	if err := svc.Run(context.Background(), source.NewReader(strings.NewReader(input))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(raw) != 2 || raw[0] != zda || raw[1] != rmc {
		t.Fatalf("raw sink got %v; want checksum-valid lines only, decode outcome ignored", raw)
	}

	c := svc.Counters()
	if c.Lines != 3 || c.ValidFrames != 2 || c.FrameErrors != 1 || c.Unsupported != 1 {
		t.Fatalf("counters=%+v", c)
	}
}

func TestRun_BadChecksumDoesNotTouchRecord(t *testing.T) {
	payload := "GPRMC,120000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	corrupted := fmt.Sprintf("$%s*%02X", payload, nmea.Checksum(payload)^0x01)

	svc := New(Config{Now: steppedClock()})
	if err := svc.Run(context.Background(), source.NewReader(strings.NewReader(corrupted))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := svc.Snapshot().PopulatedFields(); got != 0 {
		t.Fatalf("corrupted sentence changed the record (%d fields)", got)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New(Config{})
	err := svc.Run(ctx, source.NewReader(strings.NewReader("")))
	if err != context.Canceled {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
