package fix

// Collector implements the single-shot exit policy: gather two emitted
// snapshots, then report the fuller one. The first snapshot after startup
// commonly lacks the slow-cadence fields (DOPs, error estimates, GSV), so
// waiting for a second and keeping the one with more populated fields yields
// a more complete single report without an open-ended wait.
type Collector struct {
	first  Record
	hasOne bool
}

// Add records one emitted snapshot. After the second snapshot it returns the
// one with more populated fields and done=true; a tie keeps the later
// snapshot.
func (c *Collector) Add(r Record) (selected Record, done bool) {
	if !c.hasOne {
		c.first = r
		c.hasOne = true
		return Record{}, false
	}
	if r.PopulatedFields() >= c.first.PopulatedFields() {
		return r, true
	}
	return c.first, true
}

// Finish reports the best snapshot seen so far when the stream ends before
// two snapshots were collected. ok is false if nothing was collected.
func (c *Collector) Finish() (selected Record, ok bool) {
	return c.first, c.hasOne
}
