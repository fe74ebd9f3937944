package vm

import (
	"sync"
)

// A PageTableEntry tells which frame holds a virtual page.
type PageTableEntry struct {
	Valid bool
	Dirty bool
	Frame Frame
}

// A MappedEntry is a page table entry together with the page it maps.
type MappedEntry struct {
	VPN VPN
	PageTableEntry
}

// A PageTable holds the page tables of all the processes. Each process owns
// one slice of numPages entries, created when it is first touched.
type PageTable interface {
	// Insert sets the entry of a page, creating it if needed.
	Insert(pid PID, vpn VPN, entry PageTableEntry)

	// Update replaces an existing entry. It panics if the entry does not
	// exist.
	Update(pid PID, vpn VPN, entry PageTableEntry)

	// Find returns the entry of a page. The bool return value tells if the
	// entry exists at all; an existing entry may still be invalid.
	Find(pid PID, vpn VPN) (PageTableEntry, bool)

	// FindByFrame returns the page whose valid entry points at the frame.
	FindByFrame(pid PID, frame Frame) (VPN, bool)

	// Invalidate clears the valid bit of an existing entry. It returns false
	// if the entry does not exist.
	Invalidate(pid PID, vpn VPN) bool

	// Clear removes every entry of a process and returns the entries that
	// were valid.
	Clear(pid PID) []MappedEntry

	// Entries lists the existing entries of a process in page order.
	Entries(pid PID) []MappedEntry

	// NumEntries returns the number of existing entries of all processes.
	NumEntries() int
}

// NewPageTable creates a new PageTable whose per-process slices hold numPages
// entries.
func NewPageTable(numPages uint64) PageTable {
	return &pageTableImpl{
		numPages: numPages,
		tables:   make(map[PID]*processTable),
	}
}

// pageTableImpl is the default implementation of a Page Table
type pageTableImpl struct {
	sync.Mutex
	numPages uint64
	tables   map[PID]*processTable
}

func (pt *pageTableImpl) getTable(pid PID) *processTable {
	pt.Lock()
	defer pt.Unlock()

	table, found := pt.tables[pid]
	if !found {
		table = &processTable{
			entries: make([]PageTableEntry, pt.numPages),
			present: make([]bool, pt.numPages),
		}
		pt.tables[pid] = table
	}

	return table
}

func (pt *pageTableImpl) pageMustBeInRange(vpn VPN) {
	if uint64(vpn) >= pt.numPages {
		panic("page number beyond the page table size")
	}
}

// Insert put a new entry into the PageTable
func (pt *pageTableImpl) Insert(pid PID, vpn VPN, entry PageTableEntry) {
	pt.pageMustBeInRange(vpn)
	pt.getTable(pid).insert(vpn, entry)
}

// Update changes the fields of an existing entry.
func (pt *pageTableImpl) Update(pid PID, vpn VPN, entry PageTableEntry) {
	pt.pageMustBeInRange(vpn)
	pt.getTable(pid).update(vpn, entry)
}

// Find returns the entry of the given page.
func (pt *pageTableImpl) Find(pid PID, vpn VPN) (PageTableEntry, bool) {
	if uint64(vpn) >= pt.numPages {
		return PageTableEntry{}, false
	}

	return pt.getTable(pid).find(vpn)
}

// FindByFrame scans the table of a process for the valid entry that points at
// the frame.
func (pt *pageTableImpl) FindByFrame(pid PID, frame Frame) (VPN, bool) {
	return pt.getTable(pid).findByFrame(frame)
}

// Invalidate clears the valid bit of an entry.
func (pt *pageTableImpl) Invalidate(pid PID, vpn VPN) bool {
	if uint64(vpn) >= pt.numPages {
		return false
	}

	return pt.getTable(pid).invalidate(vpn)
}

// Clear removes all the entries of a process.
func (pt *pageTableImpl) Clear(pid PID) []MappedEntry {
	pt.Lock()
	table, found := pt.tables[pid]
	delete(pt.tables, pid)
	pt.Unlock()

	if !found {
		return nil
	}

	valid := make([]MappedEntry, 0)
	for _, e := range table.list() {
		if e.Valid {
			valid = append(valid, e)
		}
	}

	return valid
}

// Entries lists the entries of a process.
func (pt *pageTableImpl) Entries(pid PID) []MappedEntry {
	pt.Lock()
	table, found := pt.tables[pid]
	pt.Unlock()

	if !found {
		return nil
	}

	return table.list()
}

// NumEntries counts the existing entries of all processes.
func (pt *pageTableImpl) NumEntries() int {
	pt.Lock()
	tables := make([]*processTable, 0, len(pt.tables))
	for _, t := range pt.tables {
		tables = append(tables, t)
	}
	pt.Unlock()

	n := 0
	for _, t := range tables {
		n += len(t.list())
	}

	return n
}

// processTable models the page table slice of a single process.
type processTable struct {
	sync.Mutex
	entries []PageTableEntry
	present []bool
}

func (t *processTable) insert(vpn VPN, entry PageTableEntry) {
	t.Lock()
	defer t.Unlock()

	t.entries[vpn] = entry
	t.present[vpn] = true
}

func (t *processTable) update(vpn VPN, entry PageTableEntry) {
	t.Lock()
	defer t.Unlock()

	t.pageMustExist(vpn)

	t.entries[vpn] = entry
}

func (t *processTable) find(vpn VPN) (PageTableEntry, bool) {
	t.Lock()
	defer t.Unlock()

	if !t.present[vpn] {
		return PageTableEntry{}, false
	}

	return t.entries[vpn], true
}

func (t *processTable) findByFrame(frame Frame) (VPN, bool) {
	t.Lock()
	defer t.Unlock()

	for i, e := range t.entries {
		if t.present[i] && e.Valid && e.Frame == frame {
			return VPN(i), true
		}
	}

	return 0, false
}

func (t *processTable) invalidate(vpn VPN) bool {
	t.Lock()
	defer t.Unlock()

	if !t.present[vpn] {
		return false
	}

	t.entries[vpn].Valid = false

	return true
}

func (t *processTable) list() []MappedEntry {
	t.Lock()
	defer t.Unlock()

	res := make([]MappedEntry, 0)
	for i, e := range t.entries {
		if t.present[i] {
			res = append(res, MappedEntry{VPN: VPN(i), PageTableEntry: e})
		}
	}

	return res
}

func (t *processTable) pageMustExist(vpn VPN) {
	if !t.present[vpn] {
		panic("page does not exist")
	}
}
