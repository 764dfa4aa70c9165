package nmea

import (
	"math"
	"strconv"
	"strings"
)

// Sentence is one decoded NMEA sentence. The implementation set is closed:
// RMC, GGA, GSA, GSV, VTG, GNS, GST, plus Unsupported for everything else.
//
// Optional fields are pointers; nil means the sentence did not carry a usable
// value (empty field or one that failed numeric decode). Decoding is
// best-effort per field: a malformed number drops that field only, never the
// whole sentence.
type Sentence interface {
	sentence()
}

// TimeOfDay is an NMEA hhmmss.ss field. Fractional seconds are truncated.
type TimeOfDay struct {
	Hour, Min, Sec int
}

// Date is an NMEA ddmmyy field with the two-digit year expanded
// (00-79 -> 20xx, 80-99 -> 19xx).
type Date struct {
	Year, Month, Day int
}

// RMC: Recommended Minimum Specific GNSS Data.
//
// Fields (after the talker+type word):
//
//	0: time (hhmmss.ss)
//	1: status (A=active, V=void)
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: speed over ground (knots)
//	7: course over ground (deg)
//	8: date (ddmmyy)
//	11: mode indicator (NMEA 2.3+, optional)
type RMC struct {
	Time      *TimeOfDay
	Date      *Date
	FixOK     bool
	Lat       *float64
	Lon       *float64
	SpeedMPS  *float64
	CourseDeg *float64
	Mode      string // "" when absent
}

// GGA: Global Positioning System Fix Data.
//
// Fields:
//
//	0: time
//	1: latitude    2: N/S
//	3: longitude   4: E/W
//	5: fix quality (0=invalid, 1=GPS, 2=DGPS, 4=RTK-fix, 5=RTK-float)
//	6: satellites used
//	7: HDOP
//	8: altitude MSL  9: units (M)
//	10: geoid separation  11: units (M)
//	12: age of differential corrections (s)
//	13: differential station ID
type GGA struct {
	Time            *TimeOfDay
	Lat             *float64
	Lon             *float64
	FixQuality      *int
	NumSats         *int
	HDOP            *float64
	AltM            *float64
	GeoidSepM       *float64
	AgeCorrectionsS *float64
	DGPSID          string
}

// GSA: DOP and active satellites. Fields 1 (fix type 1-3) and 14-16
// (PDOP/HDOP/VDOP) are the ones surfaced; the SV ID slots are skipped.
type GSA struct {
	FixType *int
	PDOP    *float64
	HDOP    *float64
	VDOP    *float64
}

// GSV: satellites in view, one group of 1..TotalMsgs sentences per talker.
// Only the group bookkeeping and the declared in-view count are surfaced;
// per-satellite elevation/azimuth/SNR slots are not decoded.
type GSV struct {
	Talker     string
	TotalMsgs  int
	MsgNum     int
	SatsInView int
}

// VTG: course and speed over ground. The knots field is preferred for speed;
// the km/h field is used only when the knots field is absent.
type VTG struct {
	CourseDeg *float64
	SpeedMPS  *float64
	Mode      string
}

// GNS: GNSS fix data, the multi-constellation cousin of GGA. The mode field
// carries one positioning-mode character per constellation.
type GNS struct {
	Time      *TimeOfDay
	Lat       *float64
	Lon       *float64
	Mode      string
	NumSats   *int
	HDOP      *float64
	AltM      *float64
	GeoidSepM *float64
}

// GST: pseudorange error statistics.
type GST struct {
	Time         *TimeOfDay
	RMSRangeErrM *float64
	SDLatM       *float64
	SDLonM       *float64
	SDAltM       *float64
}

// Unsupported is a recognized frame whose type (or structure) this decoder
// does not handle. It is a value, not an error; callers skip it.
type Unsupported struct {
	Prefix string
}

func (RMC) sentence()         {}
func (GGA) sentence()         {}
func (GSA) sentence()         {}
func (GSV) sentence()         {}
func (VTG) sentence()         {}
func (GNS) sentence()         {}
func (GST) sentence()         {}
func (Unsupported) sentence() {}

const knotsToMPS = 0.514444

// Decode dispatches a validated frame to the decoder for its sentence type.
// Sentences with too few fields for their type decode as Unsupported.
func Decode(f Frame) Sentence {
	switch f.Type {
	case "RMC":
		return decodeRMC(f)
	case "GGA":
		return decodeGGA(f)
	case "GSA":
		return decodeGSA(f)
	case "GSV":
		return decodeGSV(f)
	case "VTG":
		return decodeVTG(f)
	case "GNS":
		return decodeGNS(f)
	case "GST":
		return decodeGST(f)
	default:
		return Unsupported{Prefix: f.Talker + f.Type}
	}
}

func decodeRMC(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 11 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	s := RMC{
		Time:  optTime(fl[0]),
		FixOK: strings.TrimSpace(fl[1]) == "A",
		Lat:   optLatLon(fl[2], fl[3]),
		Lon:   optLatLon(fl[4], fl[5]),
		Date:  optDate(fl[8]),
	}
	if kt := optFloat(fl[6]); kt != nil {
		mps := *kt * knotsToMPS
		s.SpeedMPS = &mps
	}
	s.CourseDeg = optCourse(fl[7])
	if len(fl) >= 12 {
		s.Mode = strings.TrimSpace(fl[11])
	}
	return s
}

func decodeGGA(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 12 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	s := GGA{
		Time:       optTime(fl[0]),
		Lat:        optLatLon(fl[1], fl[2]),
		Lon:        optLatLon(fl[3], fl[4]),
		FixQuality: optInt(fl[5]),
		NumSats:    optInt(fl[6]),
		HDOP:       optFloat(fl[7]),
	}
	// Altitude is trusted only in meters.
	if units := strings.TrimSpace(fl[9]); units == "" || strings.EqualFold(units, "M") {
		s.AltM = optFloat(fl[8])
	}
	s.GeoidSepM = optFloat(fl[10])
	if len(fl) > 12 {
		s.AgeCorrectionsS = optFloat(fl[12])
	}
	if len(fl) > 13 {
		s.DGPSID = strings.TrimSpace(fl[13])
	}
	return s
}

func decodeGSA(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 17 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	return GSA{
		FixType: optInt(fl[1]),
		PDOP:    optFloat(fl[14]),
		HDOP:    optFloat(fl[15]),
		VDOP:    optFloat(fl[16]),
	}
}

func decodeGSV(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 3 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	total := optInt(fl[0])
	num := optInt(fl[1])
	inView := optInt(fl[2])
	// The group bookkeeping fields are structural; without them the
	// sentence cannot be attributed to a group.
	if total == nil || num == nil || inView == nil {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	return GSV{
		Talker:     f.Talker,
		TotalMsgs:  *total,
		MsgNum:     *num,
		SatsInView: *inView,
	}
}

func decodeVTG(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 7 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	s := VTG{CourseDeg: optCourse(fl[0])}
	if kt := optFloat(fl[4]); kt != nil {
		mps := *kt * knotsToMPS
		s.SpeedMPS = &mps
	} else if kmh := optFloat(fl[6]); kmh != nil {
		mps := *kmh / 3.6
		s.SpeedMPS = &mps
	}
	if len(fl) >= 9 {
		s.Mode = strings.TrimSpace(fl[8])
	}
	return s
}

func decodeGNS(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 9 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	s := GNS{
		Time:    optTime(fl[0]),
		Lat:     optLatLon(fl[1], fl[2]),
		Lon:     optLatLon(fl[3], fl[4]),
		Mode:    strings.TrimSpace(fl[5]),
		NumSats: optInt(fl[6]),
		HDOP:    optFloat(fl[7]),
		AltM:    optFloat(fl[8]),
	}
	if len(fl) > 9 {
		s.GeoidSepM = optFloat(fl[9])
	}
	return s
}

func decodeGST(f Frame) Sentence {
	fl := f.Fields
	if len(fl) < 5 {
		return Unsupported{Prefix: f.Talker + f.Type}
	}
	return GST{
		Time:         optTime(fl[0]),
		RMSRangeErrM: optFloat(fl[1]),
		SDLatM:       optFloat(fl[2]),
		SDLonM:       optFloat(fl[3]),
		SDAltM:       optFloat(fl[4]),
	}
}

func optFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// optCourse normalizes course over ground into [0, 360).
func optCourse(s string) *float64 {
	v := optFloat(s)
	if v == nil {
		return nil
	}
	c := math.Mod(math.Mod(*v, 360.0)+360.0, 360.0)
	return &c
}

// optLatLon parses NMEA ddmm.mmmm (lat) or dddmm.mmmm (lon) plus hemisphere
// into signed decimal degrees.
func optLatLon(v, hemi string) *float64 {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return nil
	}

	// The last two digits of the integer part are whole minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return nil
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return nil
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return nil
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return &dec
}

// optTime parses hhmmss or hhmmss.ss. Fractional seconds truncate.
func optTime(s string) *TimeOfDay {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return nil
	}
	hh, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	ss, err3 := strconv.ParseFloat(s[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if hh > 23 || mm > 59 || ss >= 61 {
		return nil
	}
	return &TimeOfDay{Hour: hh, Min: mm, Sec: int(ss)}
}

// optDate parses ddmmyy into a full date.
func optDate(s string) *Date {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return nil
	}
	dd, err1 := strconv.Atoi(s[0:2])
	mo, err2 := strconv.Atoi(s[2:4])
	yy, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if dd < 1 || dd > 31 || mo < 1 || mo > 12 {
		return nil
	}
	year := 1900 + yy
	if yy < 80 {
		year = 2000 + yy
	}
	return &Date{Year: year, Month: mo, Day: dd}
}
