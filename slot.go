package hugecontainer

// slotState tags which of the two storage forms an entry currently holds,
// grounded on the original's ContainerObjectData tagged union (§4.D):
// resident values are held decoded in RAM; swapped values live as an
// encoded block in the scratch file.
type slotState uint8

const (
	slotResident slotState = iota
	slotSwapped
)

// slot is one entry's storage handle. The index holds it by pointer (the
// resident queue tracks keys only), and it is mutated in place as the value
// moves between resident and swapped.
type slot[V any] struct {
	state slotState

	// value holds the decoded value while state == slotResident.
	value V

	// offset/size locate the encoded block in the scratch file while
	// state == slotSwapped.
	offset uint64
	size   uint64
}

func newResidentSlot[V any](v V) *slot[V] {
	return &slot[V]{state: slotResident, value: v}
}

func newSwappedSlot[V any](offset, size uint64) *slot[V] {
	return &slot[V]{state: slotSwapped, offset: offset, size: size}
}

func (s *slot[V]) isResident() bool {
	return s.state == slotResident
}

// clone deep-copies a slot for copy-on-write detach. Resident values are
// duplicated by Go value-copy semantics (the caller's V must itself be a
// safe value to copy, same assumption the stdlib map makes of its values).
func (s *slot[V]) clone() *slot[V] {
	out := *s
	return &out
}
