package gps

// MaxSatellites is the number of slots in a Table.
const MaxSatellites = 20

// Satellite is one slot of a GSV broadcast group. Slots are positional:
// the same slot may hold a different satellite after the next group starts.
type Satellite struct {
	ID        int  `json:"id"`
	Elevation int  `json:"elevation"`
	Azimuth   int  `json:"azimuth"`
	SNR       int  `json:"snr"`
	Valid     bool `json:"-"`
}

// Table is a fixed set of satellite slots. Count is one past the highest
// slot that has received an SNR while valid, and only Reset lowers it.
type Table struct {
	slots [MaxSatellites]Satellite
	count int
}

func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = Satellite{}
	}
	t.count = 0
}

func (t *Table) Cap() int { return len(t.slots) }

func (t *Table) Count() int { return t.count }

// SetID assigns the slot's satellite id and marks the slot valid.
func (t *Table) SetID(slot, id int) {
	if slot < 0 || slot >= len(t.slots) {
		return
	}
	t.slots[slot].ID = id
	t.slots[slot].Valid = true
}

func (t *Table) UpdateElevation(slot, elevation int) {
	if s := t.valid(slot); s != nil {
		s.Elevation = elevation
	}
}

func (t *Table) UpdateAzimuth(slot, azimuth int) {
	if s := t.valid(slot); s != nil {
		s.Azimuth = azimuth
	}
}

// UpdateSNR records the slot's signal and extends Count to cover it.
func (t *Table) UpdateSNR(slot, snr int) {
	s := t.valid(slot)
	if s == nil {
		return
	}
	s.SNR = snr
	if slot+1 > t.count {
		t.count = slot + 1
	}
}

// Snapshot copies out the valid slots below Count, in slot order.
func (t *Table) Snapshot() []Satellite {
	out := make([]Satellite, 0, t.count)
	for i := 0; i < t.count; i++ {
		if t.slots[i].Valid {
			out = append(out, t.slots[i])
		}
	}
	return out
}

func (t *Table) valid(slot int) *Satellite {
	if slot < 0 || slot >= len(t.slots) || !t.slots[slot].Valid {
		return nil
	}
	return &t.slots[slot]
}
