package nmea

// Package nmea validates and decodes NMEA-0183 sentences from GNSS
// receivers.
//
// ParseFrame handles checksum framing; Decode turns a frame into one of a
// closed set of typed sentences (RMC, GGA, GSA, GSV, VTG, GNS, GST).
// Everything else is Unsupported and skipped upstream.
