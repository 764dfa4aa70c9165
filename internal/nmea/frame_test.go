package nmea

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func nmeaLine(payload string) string {
	return fmt.Sprintf("$%s*%02X", payload, Checksum(payload))
}

func TestParseFrame_ChecksumOK(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	f, err := ParseFrame(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Talker != "GP" {
		t.Fatalf("talker=%q want GP", f.Talker)
	}
	if f.Type != "RMC" {
		t.Fatalf("type=%q want RMC", f.Type)
	}
	if len(f.Fields) != 11 {
		t.Fatalf("fields=%d want 11", len(f.Fields))
	}
}

func TestParseFrame_LowercaseChecksumAccepted(t *testing.T) {
	payload := "GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1"
	line := fmt.Sprintf("$%s*%02x", payload, Checksum(payload))
	if _, err := ParseFrame(line); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestParseFrame_CRLFAndWhitespaceTrimmed(t *testing.T) {
	line := "  " + nmeaLine("GPVTG,054.7,T,034.4,M,005.5,N,010.2,K") + "\r\n"
	if _, err := ParseFrame(line); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestParseFrame_ChecksumMismatch(t *testing.T) {
	payload := "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	// Flip one bit of the checksum.
	bad := fmt.Sprintf("$%s*%02X", payload, Checksum(payload)^0x01)
	_, err := ParseFrame(bad)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err=%v want ErrChecksumMismatch", err)
	}
}

func TestParseFrame_Malformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"no dollar", "GPRMC,123519,A*68"},
		{"no star", "$GPRMC,123519,A"},
		{"short checksum", "$GPRMC,123519,A*6"},
		{"long checksum", "$GPRMC,123519,A*68A"},
		{"non-hex checksum", "$GPRMC,123519,A*ZZ"},
		{"short type word", nmeaLine("GP,1,2")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFrame(tc.line)
			if !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("err=%v want ErrMalformedFrame", err)
			}
		})
	}
}

func TestParseFrame_BangLead(t *testing.T) {
	payload := "AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0"
	line := fmt.Sprintf("!%s*%02X", payload, Checksum(payload))
	f, err := ParseFrame(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Type != "VDM" {
		t.Fatalf("type=%q want VDM", f.Type)
	}
}

func TestParseFrame_ThreeCharTalker(t *testing.T) {
	line := nmeaLine("GPSRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1")
	f, err := ParseFrame(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Talker != "GPS" || f.Type != "RMC" {
		t.Fatalf("talker=%q type=%q want GPS/RMC", f.Talker, f.Type)
	}
}

func TestParseFrame_RawKeepsTrimmedLine(t *testing.T) {
	inner := nmeaLine("GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	f, err := ParseFrame(inner + "\r\n")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.Raw != inner {
		t.Fatalf("raw=%q want %q", f.Raw, inner)
	}
	if strings.ContainsAny(f.Raw, "\r\n") {
		t.Fatalf("raw contains framing chars")
	}
}
