// Package swap keeps the content of pages that lost their frame.
package swap

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
)

// ErrDuplicateRecord is returned when a page that is already swapped out is
// put again.
var ErrDuplicateRecord = errors.New("page is already swapped out")

// A SwappedPage is the saved content of an evicted page. A nil word was never
// written and reads as zero once the page is reloaded.
type SwappedPage struct {
	Owner vm.PID         `json:"owner"`
	VPN   vm.VPN         `json:"vpn"`
	Words []storage.Word `json:"words"`
}

// Stats summarizes the content of a Store.
type Stats struct {
	Records      int `json:"records"`
	EncodedBytes int `json:"encoded_bytes"`
	StoredBytes  int `json:"stored_bytes"`
}

type key struct {
	owner vm.PID
	vpn   vm.VPN
}

type record struct {
	key
	words []storage.Word
	image encoded
}

// A Store is an unordered collection of swapped pages. There is at most one
// record for a given process and page.
type Store struct {
	codec   Codec
	records []*record
	index   map[key]*record
}

// NewStore creates an empty store that keeps pages with the given codec.
func NewStore(codec Codec) *Store {
	return &Store{
		codec: codec,
		index: make(map[key]*record),
	}
}

// Codec returns the codec of the store.
func (s *Store) Codec() Codec {
	return s.codec
}

// Put adds the content of an evicted page. It fails without changing the
// store if a record already exists for the page or if the words cannot be
// encoded.
func (s *Store) Put(page SwappedPage) error {
	k := key{owner: page.Owner, vpn: page.VPN}
	if _, found := s.index[k]; found {
		return fmt.Errorf("%w: page %d of %s",
			ErrDuplicateRecord, page.VPN, page.Owner)
	}

	r := &record{key: k}

	if s.codec == CodecNone {
		r.words = make([]storage.Word, len(page.Words))
		copy(r.words, page.Words)
	} else {
		image, err := s.codec.encode(page.Words)
		if err != nil {
			return err
		}

		r.image = image
	}

	s.records = append(s.records, r)
	s.index[k] = r

	return nil
}

// Has tells if a page of a process is swapped out.
func (s *Store) Has(pid vm.PID, vpn vm.VPN) bool {
	_, found := s.index[key{owner: pid, vpn: vpn}]
	return found
}

// Take removes the record of a page and returns its content. The bool return
// value is false if the page is not in the store.
func (s *Store) Take(pid vm.PID, vpn vm.VPN) (SwappedPage, bool, error) {
	k := key{owner: pid, vpn: vpn}

	r, found := s.index[k]
	if !found {
		return SwappedPage{}, false, nil
	}

	page, err := s.materialize(r)
	if err != nil {
		return SwappedPage{}, true, err
	}

	s.remove(r)

	return page, true, nil
}

// Purge removes all the records of a process and returns how many were
// removed.
func (s *Store) Purge(pid vm.PID) int {
	kept := s.records[:0]
	purged := 0

	for _, r := range s.records {
		if r.owner == pid {
			delete(s.index, r.key)
			purged++

			continue
		}

		kept = append(kept, r)
	}

	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}

	s.records = kept

	return purged
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns copies of all the records in insertion order.
func (s *Store) Records() ([]SwappedPage, error) {
	res := make([]SwappedPage, 0, len(s.records))

	for _, r := range s.records {
		page, err := s.materialize(r)
		if err != nil {
			return nil, err
		}

		res = append(res, page)
	}

	return res, nil
}

// Stats returns the size of the store.
func (s *Store) Stats() Stats {
	st := Stats{Records: len(s.records)}

	for _, r := range s.records {
		st.EncodedBytes += r.image.rawSize
		st.StoredBytes += len(r.image.payload)
	}

	return st
}

func (s *Store) materialize(r *record) (SwappedPage, error) {
	page := SwappedPage{Owner: r.owner, VPN: r.vpn}

	if s.codec == CodecNone {
		page.Words = make([]storage.Word, len(r.words))
		copy(page.Words, r.words)

		return page, nil
	}

	words, err := s.codec.decode(r.image)
	if err != nil {
		return SwappedPage{}, fmt.Errorf("page %d of %s: %w",
			r.vpn, r.owner, err)
	}

	page.Words = words

	return page, nil
}

func (s *Store) remove(r *record) {
	delete(s.index, r.key)

	for i, candidate := range s.records {
		if candidate == r {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}
