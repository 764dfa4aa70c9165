package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gnsswatch/internal/fix"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }
func bptr(v bool) *bool       { return &v }

func sampleRecord() fix.Record {
	return fix.Record{
		UTCTime:    sptr("1994-03-23T12:35:19Z"),
		Lat:        fptr(48.117299999),
		Lon:        fptr(11.5166667),
		AltM:       fptr(545.4),
		FixOK:      bptr(true),
		FixQuality: iptr(1),
		NumSats:    iptr(8),
		HDOP:       fptr(0.9),
		SpeedKMH:   fptr(41.48),
		CourseDeg:  fptr(84.4),
		GSV:        map[string]int{"GP": 7, "GL": 8},
	}
}

func TestHuman_FullRecord(t *testing.T) {
	got := Human(sampleRecord())
	want := "UTC 1994-03-23T12:35:19Z | fix GPS | lat 48.117300 lon 11.516667 | alt 545.4 m | sats 8 | HDOP 0.9 | spd 41.5 kmh | cog 84.4 deg | in_view[GL:8,GP:7]"
	if got != want {
		t.Fatalf("human output:\n got %q\nwant %q", got, want)
	}
}

func TestHuman_EmptyRecord(t *testing.T) {
	if got := Human(fix.Record{}); got != "UTC ?" {
		t.Fatalf("got %q want %q", got, "UTC ?")
	}
}

func TestHuman_FixTypeFallback(t *testing.T) {
	r := fix.Record{FixType: iptr(3)}
	if got := Human(r); !strings.Contains(got, "fix 3D") {
		t.Fatalf("got %q want GSA fix dimension", got)
	}
	// GGA quality wins when both are present.
	r.FixQuality = iptr(2)
	if got := Human(r); !strings.Contains(got, "fix DGPS") {
		t.Fatalf("got %q want GGA quality", got)
	}
}

func TestJSON_RoundsAndFlattens(t *testing.T) {
	s, err := JSON(sampleRecord())
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["lat"] != 48.1173 {
		t.Fatalf("lat=%v want 48.1173 (6 decimals)", m["lat"])
	}
	if m["speed_kmh"] != 41.48 {
		t.Fatalf("speed_kmh=%v want 41.48", m["speed_kmh"])
	}
	gsv, ok := m["gsv"].(map[string]any)
	if !ok {
		t.Fatalf("gsv missing or wrong shape: %v", m["gsv"])
	}
	if gsv["GP"] != 7.0 || gsv["GL"] != 8.0 {
		t.Fatalf("gsv=%v want GP:7 GL:8", gsv)
	}
}

func TestJSON_OmitsUnsetFields(t *testing.T) {
	r := fix.Record{FixQuality: iptr(0)}
	s, err := JSON(r)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if s != `{"fix_quality":0}` {
		t.Fatalf("got %s want only the present zero-valued field", s)
	}
}

func TestJSON_DoesNotMutateRecord(t *testing.T) {
	r := sampleRecord()
	before := r.Clone()
	if _, err := JSON(r); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if diff := cmp.Diff(before, r); diff != "" {
		t.Fatalf("record mutated by rendering:\n%s", diff)
	}
}

func TestFormat_Expansion(t *testing.T) {
	r := sampleRecord()
	got, err := Format(r, "Lat: %(lat).4f, Sats: %(num_sats)d, Q: %(fix_quality)d")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "Lat: 48.1173, Sats: 8, Q: 1"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFormat_StringVerb(t *testing.T) {
	got, err := Format(sampleRecord(), "%(utc_time)s ok=%(fix_ok)s")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got != "1994-03-23T12:35:19Z ok=true" {
		t.Fatalf("got %q", got)
	}
}

func TestFormat_PercentLiteral(t *testing.T) {
	got, err := Format(sampleRecord(), "100%% at %(num_sats)d sats")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got != "100% at 8 sats" {
		t.Fatalf("got %q", got)
	}
}

func TestFormat_UnsetKeyErrors(t *testing.T) {
	if _, err := Format(fix.Record{}, "%(lat).6f"); err == nil {
		t.Fatalf("expected error for unset key")
	}
}

func TestFormat_UnknownKeyErrors(t *testing.T) {
	if _, err := Format(sampleRecord(), "%(bogus)s"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestFormat_MalformedConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{name: "missing verb", tmpl: "lat: %(lat)"},
		{name: "uppercase key", tmpl: "%(LAT).6f"},
		{name: "unclosed paren", tmpl: "%(lat"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Format(sampleRecord(), tc.tmpl)
			if err == nil {
				t.Fatalf("Format(%q) = %q, want error", tc.tmpl, out)
			}
		})
	}
}

func TestFormat_VerbTypeMismatch(t *testing.T) {
	if _, err := Format(sampleRecord(), "%(utc_time)d"); err == nil {
		t.Fatalf("expected error for %%d on a string")
	}
}

func TestHelpFormat_ListsAllKeys(t *testing.T) {
	help := HelpFormat()
	for _, key := range []string{
		"utc_time", "lat", "lon", "alt_m", "fix_ok", "fix_quality",
		"fix_type", "mode", "num_sats", "gsv", "hdop", "vdop", "pdop",
		"speed_mps", "speed_kmh", "course_deg", "geoid_sep_m",
		"age_corrections_s", "dgps_id", "rms_range_err_m", "sd_lat_m",
		"sd_lon_m", "sd_alt_m", "last_update",
	} {
		if !strings.Contains(help, "%("+key+")") {
			t.Fatalf("help text missing key %q", key)
		}
	}
}
