// Package gnss runs the read/decode/merge/emit loop over an NMEA line
// source and fans emitted fix snapshots out to the configured sinks.
package gnss

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"gnsswatch/internal/fix"
	"gnsswatch/internal/nmea"
	"gnsswatch/internal/source"
)

type Config struct {
	// Interval is the minimum spacing between emissions. <= 0 means one
	// second.
	Interval time.Duration

	// Partial allows emission before lat/lon/utc_time are all present.
	Partial bool

	// Once collects two snapshots, fans out only the fuller one, and
	// stops the run.
	Once bool

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Counters are cumulative stream statistics, safe to read while Run is
// active.
type Counters struct {
	Lines       uint64 `json:"lines"`
	ValidFrames uint64 `json:"valid_frames"`
	FrameErrors uint64 `json:"frame_errors"`
	Unsupported uint64 `json:"unsupported"`
	Emissions   uint64 `json:"emissions"`
}

type Service struct {
	cfg Config
	agg *fix.Aggregator

	last atomic.Value // fix.Record

	lines       atomic.Uint64
	validFrames atomic.Uint64
	frameErrors atomic.Uint64
	unsupported atomic.Uint64
	emissions   atomic.Uint64

	sinks    []func(fix.Record)
	rawSinks []func(string)
}

func New(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Service{
		cfg: cfg,
		agg: fix.NewAggregator(cfg.Interval, cfg.Partial),
	}
	s.last.Store(fix.Record{})
	return s
}

// AddSink registers a consumer of emitted snapshots. Sinks run on the loop
// goroutine, in registration order.
func (s *Service) AddSink(fn func(fix.Record)) {
	s.sinks = append(s.sinks, fn)
}

// AddRawSink registers a consumer of every checksum-valid raw sentence,
// including ones the decoder does not handle.
func (s *Service) AddRawSink(fn func(string)) {
	s.rawSinks = append(s.rawSinks, fn)
}

// Snapshot returns the most recently emitted record (empty before the first
// emission). Safe to call concurrently with Run.
func (s *Service) Snapshot() fix.Record {
	return s.last.Load().(fix.Record)
}

func (s *Service) Counters() Counters {
	return Counters{
		Lines:       s.lines.Load(),
		ValidFrames: s.validFrames.Load(),
		FrameErrors: s.frameErrors.Load(),
		Unsupported: s.unsupported.Load(),
		Emissions:   s.emissions.Load(),
	}
}

// Run pulls lines from src until the context is canceled, the source ends,
// or (in once mode) the collector finishes. Bad frames and unsupported
// sentences are counted and skipped, never fatal; only a source failure
// propagates.
//
// ReadLine may block; callers that need prompt cancellation should close
// src when ctx is done.
func (s *Service) Run(ctx context.Context, src source.Lines) error {
	var coll fix.Collector

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := src.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if s.cfg.Once {
					// Stream ended early; report what we have.
					if sel, ok := coll.Finish(); ok {
						s.deliver(sel)
					}
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.lines.Add(1)

		frame, err := nmea.ParseFrame(line)
		if err != nil {
			s.frameErrors.Add(1)
			continue
		}
		s.validFrames.Add(1)
		for _, fn := range s.rawSinks {
			fn(frame.Raw)
		}

		sent := nmea.Decode(frame)
		if _, skip := sent.(nmea.Unsupported); skip {
			s.unsupported.Add(1)
			continue
		}

		snap, emitted := s.agg.Merge(s.cfg.Now(), sent)
		if !emitted {
			continue
		}

		if s.cfg.Once {
			sel, done := coll.Add(snap)
			if done {
				s.deliver(sel)
				return nil
			}
			continue
		}
		s.deliver(snap)
	}
}

func (s *Service) deliver(r fix.Record) {
	s.emissions.Add(1)
	s.last.Store(r)
	for _, fn := range s.sinks {
		fn(r)
	}
}
