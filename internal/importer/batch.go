package importer

// batcher collects items and hands them to flush in groups of size. The
// caller flushes the last, possibly short, group.
type batcher[T any] struct {
	size  int
	items []T
	flush func([]T) error
}

func newBatcher[T any](size int, flush func([]T) error) *batcher[T] {
	return &batcher[T]{size: size, items: make([]T, 0, size), flush: flush}
}

// Add queues item and flushes when the batch is full.
func (b *batcher[T]) Add(item T) error {
	b.items = append(b.items, item)
	if len(b.items) >= b.size {
		return b.Flush()
	}
	return nil
}

// Flush sends the queued items, if any.
func (b *batcher[T]) Flush() error {
	if len(b.items) == 0 {
		return nil
	}
	items := b.items
	b.items = make([]T, 0, b.size)
	return b.flush(items)
}
