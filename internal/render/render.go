// Package render turns fix records into the output shapes the CLI offers:
// a pipe-separated human summary, compact JSON, and a %(key)-style custom
// format. Rendering never mutates the record; absent fields are simply
// omitted.
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gnsswatch/internal/fix"
)

var fixQualityNames = map[int]string{
	0: "no-fix",
	1: "GPS",
	2: "DGPS",
	4: "RTK-fix",
	5: "RTK-float",
	6: "est",
}

var fixTypeNames = map[int]string{
	1: "no-fix",
	2: "2D",
	3: "3D",
}

// Human renders the default one-line status summary.
func Human(r fix.Record) string {
	var parts []string

	if r.UTCTime != nil {
		parts = append(parts, "UTC "+*r.UTCTime)
	} else {
		parts = append(parts, "UTC ?")
	}

	// GGA quality is more specific than GSA dimension; prefer it.
	if r.FixQuality != nil {
		name, ok := fixQualityNames[*r.FixQuality]
		if !ok {
			name = fmt.Sprintf("%d", *r.FixQuality)
		}
		parts = append(parts, "fix "+name)
	} else if r.FixType != nil {
		name, ok := fixTypeNames[*r.FixType]
		if !ok {
			name = fmt.Sprintf("%d", *r.FixType)
		}
		parts = append(parts, "fix "+name)
	}

	if r.Lat != nil && r.Lon != nil {
		parts = append(parts, fmt.Sprintf("lat %.6f lon %.6f", *r.Lat, *r.Lon))
	}
	if r.AltM != nil {
		parts = append(parts, fmt.Sprintf("alt %.1f m", *r.AltM))
	}
	if r.NumSats != nil {
		parts = append(parts, fmt.Sprintf("sats %d", *r.NumSats))
	}
	if r.HDOP != nil {
		parts = append(parts, fmt.Sprintf("HDOP %.1f", *r.HDOP))
	}
	if r.PDOP != nil {
		parts = append(parts, fmt.Sprintf("PDOP %.1f", *r.PDOP))
	}
	if r.VDOP != nil {
		parts = append(parts, fmt.Sprintf("VDOP %.1f", *r.VDOP))
	}
	if r.SpeedKMH != nil {
		parts = append(parts, fmt.Sprintf("spd %.1f kmh", *r.SpeedKMH))
	}
	if r.CourseDeg != nil {
		parts = append(parts, fmt.Sprintf("cog %.1f deg", *r.CourseDeg))
	}

	if len(r.GSV) > 0 {
		talkers := make([]string, 0, len(r.GSV))
		for t := range r.GSV {
			talkers = append(talkers, t)
		}
		sort.Strings(talkers)
		sys := make([]string, 0, len(talkers))
		for _, t := range talkers {
			sys = append(sys, fmt.Sprintf("%s:%d", t, r.GSV[t]))
		}
		parts = append(parts, "in_view["+strings.Join(sys, ",")+"]")
	}

	return strings.Join(parts, " | ")
}

// JSON renders the record as one compact JSON object. lat/lon keep six
// decimals, other floats three, so repeated output stays readable.
func JSON(r fix.Record) (string, error) {
	out := r.Clone()
	round3 := func(p *float64) {
		if p != nil {
			*p = math.Round(*p*1e3) / 1e3
		}
	}
	round6 := func(p *float64) {
		if p != nil {
			*p = math.Round(*p*1e6) / 1e6
		}
	}
	round6(out.Lat)
	round6(out.Lon)
	round3(out.AltM)
	round3(out.HDOP)
	round3(out.VDOP)
	round3(out.PDOP)
	round3(out.SpeedMPS)
	round3(out.SpeedKMH)
	round3(out.CourseDeg)
	round3(out.GeoidSepM)
	round3(out.AgeCorrectionsS)
	round3(out.RMSRangeErrM)
	round3(out.SDLatM)
	round3(out.SDLonM)
	round3(out.SDAltM)
	round3(out.LastUpdate)

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("render json: %w", err)
	}
	return string(b), nil
}
