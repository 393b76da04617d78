package db

import (
	"github.com/jackc/pgx/v5"
)

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel
// and flattening each with values. The channel gives the producer
// backpressure from the COPY writer.
type ChannelSource[T any] struct {
	ch      <-chan T
	values  func(T) []any
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T any](ch <-chan T, values func(T) []any) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, values: values}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.values(s.current), nil
}

func (s *ChannelSource[T]) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource[int])(nil)
