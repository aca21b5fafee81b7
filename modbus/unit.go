package modbus

// UnitID describes a Modbus station address on a serial line.
type UnitID uint8

// Unit identifier constants.
const (
	// UnitBroadcast is the unit identifier used for broadcasts over a serial
	// line. Broadcast requests are executed by every responder but never
	// answered.
	UnitBroadcast UnitID = 0

	// UnitIndividualMin is the minimum valid unit ID for an individual serial
	// Modbus device.
	UnitIndividualMin UnitID = 1

	// UnitIndividualMax is the maximum valid unit ID for an individual serial
	// Modbus device.
	UnitIndividualMax UnitID = 247
)

// IsValid checks whether this unit identifier may appear on a serial line,
// either as broadcast or as an individual device.
func (uid UnitID) IsValid() bool {
	return uid <= UnitIndividualMax
}

// IsBroadcast reports whether this is the broadcast unit identifier.
func (uid UnitID) IsBroadcast() bool {
	return uid == UnitBroadcast
}

// UnitSet is the set of unit identifiers a responder answers to.
// The zero value is the empty set.
type UnitSet struct {
	bits [4]uint64
}

// NewUnitSet returns a set containing the given units.
func NewUnitSet(units ...UnitID) UnitSet {
	var s UnitSet
	for _, uid := range units {
		s = s.With(uid)
	}
	return s
}

// With returns a copy of this set with uid added.
func (s UnitSet) With(uid UnitID) UnitSet {
	s.bits[uid/64] |= 1 << (uid % 64)
	return s
}

// Contains reports whether uid is a member of this set.
func (s UnitSet) Contains(uid UnitID) bool {
	return s.bits[uid/64]&(1<<(uid%64)) != 0
}

// Units returns the members of this set in ascending order.
func (s UnitSet) Units() []UnitID {
	var result []UnitID
	for i := 0; i < 256; i++ {
		if s.Contains(UnitID(i)) {
			result = append(result, UnitID(i))
		}
	}
	return result
}
