package storage

// Batch groups writes that must land together: either every Set and Delete
// is visible afterwards or none are.
type Batch struct {
	Set    map[string]string
	Delete []string
}

// NewBatch returns an empty batch ready for use.
func NewBatch() Batch {
	return Batch{Set: make(map[string]string)}
}

// Put records a value to be written.
func (b *Batch) Put(key, value string) {
	if b.Set == nil {
		b.Set = make(map[string]string)
	}
	b.Set[key] = value
	for i, k := range b.Delete {
		if k == key {
			b.Delete = append(b.Delete[:i], b.Delete[i+1:]...)
			break
		}
	}
}

// Remove records a key to be deleted.
func (b *Batch) Remove(key string) {
	delete(b.Set, key)
	for _, k := range b.Delete {
		if k == key {
			return
		}
	}
	b.Delete = append(b.Delete, key)
}

// Empty reports whether the batch carries no writes.
func (b Batch) Empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}
