package exported

// ClientStore is the key-value view a light client is given over its own prefixed
// region of host storage. Implementations panic on backend failures, in the same way
// the SDK's KVStore does, so that light client code only handles protocol errors.
type ClientStore interface {
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte)
	Delete(key []byte)

	// Iterator iterates over the domain [start, end) in ascending key order.
	// A nil start or end is unbounded.
	Iterator(start, end []byte) Iterator

	// ReverseIterator iterates over the domain [start, end) in descending key order.
	ReverseIterator(start, end []byte) Iterator
}

// Iterator is a cursor over a key range of a ClientStore. Callers must Close it.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close()
}
