package tracing

import (
	"context"
	"fmt"

	"github.com/sarchlab/vmsim/datarecording"
)

// A Summary counts the records of a trace.
type Summary struct {
	PageFaults     int
	FaultsResolved int
	SwapIns        int
	Evictions      int
	Teardowns      int
}

// MapTables lets a reader query the tables written by a DBTracer.
func MapTables(reader datarecording.DataReader) {
	reader.MapTable(TablePageFault, pageFaultEntry{})
	reader.MapTable(TableFaultResolved, faultResolvedEntry{})
	reader.MapTable(TableEviction, evictionEntry{})
	reader.MapTable(TableTeardown, teardownEntry{})
}

// Summarize counts the records of a trace. The reader must have its tables
// mapped with MapTables.
func Summarize(
	ctx context.Context,
	reader datarecording.DataReader,
) (Summary, error) {
	var s Summary

	counts := []struct {
		table  string
		where  string
		target *int
	}{
		{TablePageFault, "", &s.PageFaults},
		{TableFaultResolved, "", &s.FaultsResolved},
		{TableFaultResolved, "FromSwap = 1", &s.SwapIns},
		{TableEviction, "", &s.Evictions},
		{TableTeardown, "", &s.Teardowns},
	}

	for _, c := range counts {
		_, total, err := reader.Query(ctx, c.table, datarecording.QueryParams{
			Where: c.where,
			Limit: 1,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("counting %s: %w", c.table, err)
		}

		*c.target = total
	}

	return s, nil
}
