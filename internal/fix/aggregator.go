package fix

import (
	"fmt"
	"time"

	"gnsswatch/internal/nmea"
)

// Aggregator merges decoded sentences into a single mutable Record and
// decides when the record is worth emitting.
//
// The merge overwrites only the fields the incoming sentence carries;
// nothing is ever cleared, so once the lat/lon/utc_time triple is complete
// the aggregator stays complete for the life of the run.
//
// Emission is a minimum-interval gate sampled at each merge, not a timer: a
// merge earlier than Interval after the previous emission is silent, the
// next merge at or past the boundary emits. With no input there are no
// emissions.
type Aggregator struct {
	rec      Record
	partial  bool
	interval time.Duration
	lastEmit time.Time
	lastDate *nmea.Date
	groups   map[string]*gsvGroup
}

// gsvGroup tracks one in-flight GSV sentence group for a talker. The in-view
// count is committed to the record only once every index 1..total has been
// seen, in any arrival order.
type gsvGroup struct {
	total  int
	inView int
	seen   map[int]bool
}

// NewAggregator returns an empty aggregator. interval <= 0 defaults to one
// second. partial allows emission before the lat/lon/utc_time triple is
// complete.
func NewAggregator(interval time.Duration, partial bool) *Aggregator {
	if interval <= 0 {
		interval = time.Second
	}
	return &Aggregator{
		partial:  partial,
		interval: interval,
		groups:   make(map[string]*gsvGroup),
	}
}

// Merge applies one decoded sentence and evaluates the emission gate.
// now supplies the wall clock for the cadence and the fallback date for
// date-less sentence times before any sentence has carried a date. The returned Record is a deep copy,
// valid only when emitted is true.
func (a *Aggregator) Merge(now time.Time, s nmea.Sentence) (snap Record, emitted bool) {
	switch v := s.(type) {
	case nmea.RMC:
		a.mergeRMC(now, v)
	case nmea.GGA:
		a.mergeGGA(now, v)
	case nmea.GSA:
		a.mergeGSA(v)
	case nmea.GSV:
		a.mergeGSV(v)
	case nmea.VTG:
		a.mergeVTG(v)
	case nmea.GNS:
		a.mergeGNS(now, v)
	case nmea.GST:
		a.mergeGST(now, v)
	default:
		// Unsupported: nothing to merge, and no emission either; the
		// gate is only sampled when the record may have changed.
		return Record{}, false
	}

	if now.Sub(a.lastEmit) < a.interval && !a.lastEmit.IsZero() {
		return Record{}, false
	}
	if !a.partial && !a.rec.HasPosition() {
		return Record{}, false
	}
	a.lastEmit = now
	ts := float64(now.UnixNano()) / 1e9
	a.rec.LastUpdate = &ts
	return a.rec.Clone(), true
}

// Current returns a copy of the record as it stands, independent of the
// emission gate.
func (a *Aggregator) Current() Record {
	return a.rec.Clone()
}

func (a *Aggregator) mergeRMC(now time.Time, s nmea.RMC) {
	a.setUTC(now, s.Time, s.Date)
	ok := s.FixOK
	a.rec.FixOK = &ok
	setIf(&a.rec.Lat, s.Lat)
	setIf(&a.rec.Lon, s.Lon)
	a.setSpeed(s.SpeedMPS)
	setIf(&a.rec.CourseDeg, s.CourseDeg)
	if s.Mode != "" {
		m := s.Mode
		a.rec.Mode = &m
	}
}

func (a *Aggregator) mergeGGA(now time.Time, s nmea.GGA) {
	a.setUTC(now, s.Time, nil)
	setIf(&a.rec.Lat, s.Lat)
	setIf(&a.rec.Lon, s.Lon)
	setIf(&a.rec.FixQuality, s.FixQuality)
	setIf(&a.rec.NumSats, s.NumSats)
	setIf(&a.rec.HDOP, s.HDOP)
	setIf(&a.rec.AltM, s.AltM)
	setIf(&a.rec.GeoidSepM, s.GeoidSepM)
	setIf(&a.rec.AgeCorrectionsS, s.AgeCorrectionsS)
	if s.DGPSID != "" {
		id := s.DGPSID
		a.rec.DGPSID = &id
	}
}

func (a *Aggregator) mergeGSA(s nmea.GSA) {
	setIf(&a.rec.FixType, s.FixType)
	setIf(&a.rec.PDOP, s.PDOP)
	setIf(&a.rec.HDOP, s.HDOP)
	setIf(&a.rec.VDOP, s.VDOP)
}

func (a *Aggregator) mergeGSV(s nmea.GSV) {
	if s.TotalMsgs < 1 || s.MsgNum < 1 || s.MsgNum > s.TotalMsgs {
		return
	}
	g := a.groups[s.Talker]
	// A changed group shape means a fresh group started; drop the old one.
	if g == nil || g.total != s.TotalMsgs || g.inView != s.SatsInView {
		g = &gsvGroup{total: s.TotalMsgs, inView: s.SatsInView, seen: make(map[int]bool)}
		a.groups[s.Talker] = g
	}
	g.seen[s.MsgNum] = true
	if len(g.seen) == g.total {
		if a.rec.GSV == nil {
			a.rec.GSV = make(map[string]int)
		}
		a.rec.GSV[s.Talker] = g.inView
		delete(a.groups, s.Talker)
	}
}

func (a *Aggregator) mergeVTG(s nmea.VTG) {
	setIf(&a.rec.CourseDeg, s.CourseDeg)
	a.setSpeed(s.SpeedMPS)
	if s.Mode != "" {
		m := s.Mode
		a.rec.Mode = &m
	}
}

func (a *Aggregator) mergeGNS(now time.Time, s nmea.GNS) {
	a.setUTC(now, s.Time, nil)
	setIf(&a.rec.Lat, s.Lat)
	setIf(&a.rec.Lon, s.Lon)
	if s.Mode != "" {
		m := s.Mode
		a.rec.Mode = &m
	}
	setIf(&a.rec.NumSats, s.NumSats)
	setIf(&a.rec.HDOP, s.HDOP)
	setIf(&a.rec.AltM, s.AltM)
	setIf(&a.rec.GeoidSepM, s.GeoidSepM)
}

func (a *Aggregator) mergeGST(now time.Time, s nmea.GST) {
	a.setUTC(now, s.Time, nil)
	setIf(&a.rec.RMSRangeErrM, s.RMSRangeErrM)
	setIf(&a.rec.SDLatM, s.SDLatM)
	setIf(&a.rec.SDLonM, s.SDLonM)
	setIf(&a.rec.SDAltM, s.SDAltM)
}

// setSpeed keeps the m/s and km/h pair consistent; both are set from the
// single underlying value.
func (a *Aggregator) setSpeed(mps *float64) {
	if mps == nil {
		return
	}
	m := *mps
	k := m * 3.6
	a.rec.SpeedMPS = &m
	a.rec.SpeedKMH = &k
}

// setUTC builds the ISO-8601 UTC timestamp. A sentence that carries a date
// (RMC) also records it, so that later date-less sentences (GGA, GNS, GST)
// keep that date rather than jumping to today's. Only before any date has
// been seen does the current UTC date fill in.
func (a *Aggregator) setUTC(now time.Time, t *nmea.TimeOfDay, d *nmea.Date) {
	if d != nil {
		dv := *d
		a.lastDate = &dv
	}
	if t == nil {
		return
	}
	var ts time.Time
	if a.lastDate != nil {
		ld := a.lastDate
		ts = time.Date(ld.Year, time.Month(ld.Month), ld.Day, t.Hour, t.Min, t.Sec, 0, time.UTC)
	} else {
		n := now.UTC()
		ts = time.Date(n.Year(), n.Month(), n.Day(), t.Hour, t.Min, t.Sec, 0, time.UTC)
	}
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
		ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second())
	a.rec.UTCTime = &s
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
