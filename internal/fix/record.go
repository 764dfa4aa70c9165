package fix

// Record is the aggregate "current fix" state, merged field-by-field from
// decoded sentences. A nil field has not been supplied by any sentence yet;
// zero is a legitimate value for several fields (fix_quality=0 is "no fix"),
// so absent and zero are never conflated.
type Record struct {
	UTCTime    *string  `json:"utc_time,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	AltM       *float64 `json:"alt_m,omitempty"`
	FixOK      *bool    `json:"fix_ok,omitempty"`
	FixQuality *int     `json:"fix_quality,omitempty"`
	FixType    *int     `json:"fix_type,omitempty"`
	Mode       *string  `json:"mode,omitempty"`
	NumSats    *int     `json:"num_sats,omitempty"`

	// GSV maps talker ID to the declared satellites-in-view count, one
	// entry per constellation observed. A talker's count is replaced
	// whenever a fresh GSV group for it completes.
	GSV map[string]int `json:"gsv,omitempty"`

	HDOP *float64 `json:"hdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`

	// SpeedKMH is always SpeedMPS*3.6; the pair is set together and is
	// never independently stale.
	SpeedMPS  *float64 `json:"speed_mps,omitempty"`
	SpeedKMH  *float64 `json:"speed_kmh,omitempty"`
	CourseDeg *float64 `json:"course_deg,omitempty"`

	GeoidSepM       *float64 `json:"geoid_sep_m,omitempty"`
	AgeCorrectionsS *float64 `json:"age_corrections_s,omitempty"`
	DGPSID          *string  `json:"dgps_id,omitempty"`

	RMSRangeErrM *float64 `json:"rms_range_err_m,omitempty"`
	SDLatM       *float64 `json:"sd_lat_m,omitempty"`
	SDLonM       *float64 `json:"sd_lon_m,omitempty"`
	SDAltM       *float64 `json:"sd_alt_m,omitempty"`

	// LastUpdate is the local wall-clock time (unix seconds) stamped when
	// the record was emitted, not when a sentence was parsed.
	LastUpdate *float64 `json:"last_update,omitempty"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy sharing no pointers or maps with the receiver.
// Snapshots handed to callers are clones, so the aggregator may keep
// mutating its internal record while a caller reads.
func (r Record) Clone() Record {
	out := r
	out.UTCTime = clonePtr(r.UTCTime)
	out.Lat = clonePtr(r.Lat)
	out.Lon = clonePtr(r.Lon)
	out.AltM = clonePtr(r.AltM)
	out.FixOK = clonePtr(r.FixOK)
	out.FixQuality = clonePtr(r.FixQuality)
	out.FixType = clonePtr(r.FixType)
	out.Mode = clonePtr(r.Mode)
	out.NumSats = clonePtr(r.NumSats)
	out.HDOP = clonePtr(r.HDOP)
	out.VDOP = clonePtr(r.VDOP)
	out.PDOP = clonePtr(r.PDOP)
	out.SpeedMPS = clonePtr(r.SpeedMPS)
	out.SpeedKMH = clonePtr(r.SpeedKMH)
	out.CourseDeg = clonePtr(r.CourseDeg)
	out.GeoidSepM = clonePtr(r.GeoidSepM)
	out.AgeCorrectionsS = clonePtr(r.AgeCorrectionsS)
	out.DGPSID = clonePtr(r.DGPSID)
	out.RMSRangeErrM = clonePtr(r.RMSRangeErrM)
	out.SDLatM = clonePtr(r.SDLatM)
	out.SDLonM = clonePtr(r.SDLonM)
	out.SDAltM = clonePtr(r.SDAltM)
	out.LastUpdate = clonePtr(r.LastUpdate)
	if r.GSV != nil {
		out.GSV = make(map[string]int, len(r.GSV))
		for k, v := range r.GSV {
			out.GSV[k] = v
		}
	}
	return out
}

// PopulatedFields counts the fields that currently hold a value. The GSV map
// counts as one field when non-empty. Used by the once-mode collector to
// pick the fuller of two snapshots without caring how a formatter would
// render them.
func (r Record) PopulatedFields() int {
	set := []bool{
		r.UTCTime != nil,
		r.Lat != nil,
		r.Lon != nil,
		r.AltM != nil,
		r.FixOK != nil,
		r.FixQuality != nil,
		r.FixType != nil,
		r.Mode != nil,
		r.NumSats != nil,
		len(r.GSV) > 0,
		r.HDOP != nil,
		r.VDOP != nil,
		r.PDOP != nil,
		r.SpeedMPS != nil,
		r.SpeedKMH != nil,
		r.CourseDeg != nil,
		r.GeoidSepM != nil,
		r.AgeCorrectionsS != nil,
		r.DGPSID != nil,
		r.RMSRangeErrM != nil,
		r.SDLatM != nil,
		r.SDLonM != nil,
		r.SDAltM != nil,
		r.LastUpdate != nil,
	}
	n := 0
	for _, ok := range set {
		if ok {
			n++
		}
	}
	return n
}

// HasPosition reports whether the record holds the lat/lon/utc_time triple
// that gates emission when partial output is off.
func (r Record) HasPosition() bool {
	return r.Lat != nil && r.Lon != nil && r.UTCTime != nil
}
