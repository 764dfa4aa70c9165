package render

import (
	"fmt"
	"regexp"
	"strings"

	"gnsswatch/internal/fix"
)

// formatToken matches one %(key) conversion with flags and a verb, e.g. %(lat).6f.
var formatToken = regexp.MustCompile(`%\(([a-z_]+)\)([-+ 0#]*(?:\d+)?(?:\.\d+)?)([a-zA-Z])`)

// Format expands a %(key)verb template against the record's populated
// fields. A key that is unknown or currently unset is an error, as is a verb
// that does not fit the field's type (d for floats, f for strings, ...).
// "%%" renders a literal percent sign.
func Format(r fix.Record, tmpl string) (string, error) {
	vals := formatValues(r)

	var firstErr error
	out := formatToken.ReplaceAllStringFunc(strings.ReplaceAll(tmpl, "%%", "\x00"), func(m string) string {
		sub := formatToken.FindStringSubmatch(m)
		key, flags, verb := sub[1], sub[2], sub[3]
		v, ok := vals[key]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("format: no value for key %q", key)
			}
			return m
		}
		s, err := formatValue(v, flags, verb)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return s
	})
	if firstErr != nil {
		return "", firstErr
	}
	// A leftover "%(" means a token the pattern never matched, such as an
	// uppercase key or a missing verb; silently echoing it would hide the
	// typo.
	if i := strings.Index(out, "%("); i >= 0 {
		end := strings.IndexByte(out[i:], ')')
		if end < 0 {
			end = len(out) - i
		} else {
			end++
		}
		return "", fmt.Errorf("format: malformed conversion %q", out[i:i+end])
	}
	return strings.ReplaceAll(out, "\x00", "%"), nil
}

func formatValue(v any, flags, verb string) (string, error) {
	switch verb {
	case "s":
		return fmt.Sprintf("%"+flags+"v", v), nil
	case "d":
		n, ok := v.(int)
		if !ok {
			if b, isBool := v.(bool); isBool {
				n = 0
				if b {
					n = 1
				}
				ok = true
			}
		}
		if !ok {
			return "", fmt.Errorf("format: %%d applied to %T", v)
		}
		return fmt.Sprintf("%"+flags+"d", n), nil
	case "f", "F", "e", "E", "g", "G":
		f, ok := v.(float64)
		if !ok {
			if n, isInt := v.(int); isInt {
				f = float64(n)
				ok = true
			}
		}
		if !ok {
			return "", fmt.Errorf("format: %%%s applied to %T", verb, v)
		}
		return fmt.Sprintf("%"+flags+verb, f), nil
	default:
		return "", fmt.Errorf("format: unsupported verb %%%s", verb)
	}
}

// formatValues flattens the populated record fields into the key set the
// template language exposes.
func formatValues(r fix.Record) map[string]any {
	m := make(map[string]any)
	if r.UTCTime != nil {
		m["utc_time"] = *r.UTCTime
	}
	if r.Lat != nil {
		m["lat"] = *r.Lat
	}
	if r.Lon != nil {
		m["lon"] = *r.Lon
	}
	if r.AltM != nil {
		m["alt_m"] = *r.AltM
	}
	if r.FixOK != nil {
		m["fix_ok"] = *r.FixOK
	}
	if r.FixQuality != nil {
		m["fix_quality"] = *r.FixQuality
	}
	if r.FixType != nil {
		m["fix_type"] = *r.FixType
	}
	if r.Mode != nil {
		m["mode"] = *r.Mode
	}
	if r.NumSats != nil {
		m["num_sats"] = *r.NumSats
	}
	if len(r.GSV) > 0 {
		m["gsv"] = fmt.Sprintf("%v", r.GSV)
	}
	if r.HDOP != nil {
		m["hdop"] = *r.HDOP
	}
	if r.VDOP != nil {
		m["vdop"] = *r.VDOP
	}
	if r.PDOP != nil {
		m["pdop"] = *r.PDOP
	}
	if r.SpeedMPS != nil {
		m["speed_mps"] = *r.SpeedMPS
	}
	if r.SpeedKMH != nil {
		m["speed_kmh"] = *r.SpeedKMH
	}
	if r.CourseDeg != nil {
		m["course_deg"] = *r.CourseDeg
	}
	if r.GeoidSepM != nil {
		m["geoid_sep_m"] = *r.GeoidSepM
	}
	if r.AgeCorrectionsS != nil {
		m["age_corrections_s"] = *r.AgeCorrectionsS
	}
	if r.DGPSID != nil {
		m["dgps_id"] = *r.DGPSID
	}
	if r.RMSRangeErrM != nil {
		m["rms_range_err_m"] = *r.RMSRangeErrM
	}
	if r.SDLatM != nil {
		m["sd_lat_m"] = *r.SDLatM
	}
	if r.SDLonM != nil {
		m["sd_lon_m"] = *r.SDLonM
	}
	if r.SDAltM != nil {
		m["sd_alt_m"] = *r.SDAltM
	}
	if r.LastUpdate != nil {
		m["last_update"] = *r.LastUpdate
	}
	return m
}

// HelpFormat returns the key listing printed by --help-format.
func HelpFormat() string {
	return `Available format keys for use with --format:

Time and Position:
  %(utc_time)s      - ISO-8601 UTC timestamp (e.g., '2025-10-29T12:34:56Z')
  %(lat).6f         - Latitude in decimal degrees
  %(lon).6f         - Longitude in decimal degrees
  %(alt_m).1f       - Altitude in meters above MSL

Fix Quality and Status:
  %(fix_ok)s        - Boolean indicating valid position fix
  %(fix_quality)d   - GGA fix quality (0=no fix, 1=GPS, 2=DGPS, 4=RTK-fix, 5=RTK-float)
  %(fix_type)d      - GSA fix dimension (1=no fix, 2=2D, 3=3D)
  %(mode)s          - NMEA positioning mode (N/A/D/E/R/F)

Satellite Information:
  %(num_sats)d      - Number of satellites used in solution
  %(gsv)s           - Satellites in view per constellation

Dilution of Precision:
  %(hdop).2f        - Horizontal dilution of precision
  %(vdop).2f        - Vertical dilution of precision
  %(pdop).2f        - Position dilution of precision

Motion:
  %(speed_mps).2f   - Ground speed in meters per second
  %(speed_kmh).2f   - Ground speed in kilometers per hour
  %(course_deg).1f  - Course over ground in degrees (0-360)

Differential Corrections:
  %(geoid_sep_m).1f - Geoid separation in meters
  %(age_corrections_s)s - Age of differential corrections in seconds
  %(dgps_id)s       - Differential reference station ID

Error Estimates:
  %(rms_range_err_m).2f - RMS of pseudorange residuals in meters
  %(sd_lat_m).2f    - Standard deviation of latitude error in meters
  %(sd_lon_m).2f    - Standard deviation of longitude error in meters
  %(sd_alt_m).2f    - Standard deviation of altitude error in meters

Metadata:
  %(last_update).3f - Local timestamp when record was emitted

Example format strings:
  --format 'Lat: %(lat).6f, Lon: %(lon).6f'
  --format '%(utc_time)s | %(lat).6f,%(lon).6f | Alt: %(alt_m).1fm | Sats: %(num_sats)d'
  --format 'Speed: %(speed_kmh).1f km/h | Course: %(course_deg).0f deg'
`
}
