// Package storage provides the physical word store of the simulated machine.
package storage

import (
	"errors"
	"fmt"
)

// A Word is the content of one physical slot. A nil Word marks a slot that has
// never been written.
type Word = any

// ErrBeyondCapacity is returned when an address or a unit falls outside of the
// storage.
var ErrBeyondCapacity = errors.New(
	"accessing physical address beyond the storage capacity")

// A Storage keeps the data of the guest system.
//
// The storage is a flat array of word slots. It is managed in units of
// unitSize words, which are the frames of the memory manager. The storage
// itself does not know about owners or page tables; which slots hold what is
// decided by the caller.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     []Word
}

// NewStorage creates a storage object with the specified capacity, in words,
// partitioned into units of unitSize words.
func NewStorage(capacity, unitSize uint64) *Storage {
	if unitSize == 0 || capacity%unitSize != 0 {
		panic(fmt.Sprintf(
			"storage capacity %d is not a multiple of unit size %d",
			capacity, unitSize))
	}

	storage := new(Storage)
	storage.unitSize = unitSize
	storage.capacity = capacity
	storage.data = make([]Word, capacity)

	return storage
}

// Capacity returns the number of word slots.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// UnitSize returns the number of words in a unit.
func (s *Storage) UnitSize() uint64 {
	return s.unitSize
}

// NumUnits returns the number of units in the storage.
func (s *Storage) NumUnits() uint64 {
	return s.capacity / s.unitSize
}

// Read returns the word stored at the address.
func (s *Storage) Read(address uint64) (Word, error) {
	if address >= s.capacity {
		return nil, ErrBeyondCapacity
	}

	return s.data[address], nil
}

// Write stores a word at the address.
func (s *Storage) Write(address uint64, w Word) error {
	if address >= s.capacity {
		return ErrBeyondCapacity
	}

	s.data[address] = w

	return nil
}

// ReadUnit returns a copy of all the words in a unit.
func (s *Storage) ReadUnit(unit uint64) ([]Word, error) {
	base, err := s.unitBase(unit)
	if err != nil {
		return nil, err
	}

	res := make([]Word, s.unitSize)
	copy(res, s.data[base:base+s.unitSize])

	return res, nil
}

// WriteUnit replaces the content of a unit. Words missing from data, or nil
// words, are stored as integer zero, so that a restored unit is fully
// initialized.
func (s *Storage) WriteUnit(unit uint64, data []Word) error {
	base, err := s.unitBase(unit)
	if err != nil {
		return err
	}

	if uint64(len(data)) > s.unitSize {
		return fmt.Errorf("writing %d words into a unit of %d words",
			len(data), s.unitSize)
	}

	for i := uint64(0); i < s.unitSize; i++ {
		var w Word
		if i < uint64(len(data)) {
			w = data[i]
		}

		if w == nil {
			w = 0
		}

		s.data[base+i] = w
	}

	return nil
}

// ZeroUnit fills a unit with integer zeros.
func (s *Storage) ZeroUnit(unit uint64) error {
	return s.WriteUnit(unit, nil)
}

// Occupied returns the number of slots holding a non-nil word.
func (s *Storage) Occupied() uint64 {
	count := uint64(0)

	for _, w := range s.data {
		if w != nil {
			count++
		}
	}

	return count
}

func (s *Storage) unitBase(unit uint64) (uint64, error) {
	if unit >= s.NumUnits() {
		return 0, ErrBeyondCapacity
	}

	return unit * s.unitSize, nil
}
