/*
*	HProf binary format described here
*	https://github.com/openjdk/jdk/blob/master/src/hotspot/share/services/heapDumper.cpp
 */
package parser

import (
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/mabhi256/hangdiag/internal/heap/model"
	"github.com/mabhi256/hangdiag/internal/heap/registry"
)

// Parse reads a complete HPROF stream and returns the populated registries.
func Parse(r io.Reader, logger *slog.Logger) (*registry.HeapRegistries, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := NewBinaryReader(r)
	header, err := ParseHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	heap := registry.NewHeapRegistries()
	heap.Header = header
	heap.Objects.SetIdentifierSize(header.IdentifierSize)

	recordCounts := make(map[model.HProfTagRecord]int)
	subRecordCounts := make(map[model.HProfTagSubRecord]int)

	for {
		record, err := reader.ReadRecordHeader()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		recordCounts[record.Type]++

		recordStart := reader.BytesRead()
		if err := parseRecord(reader, record, heap, subRecordCounts); err != nil {
			return nil, fmt.Errorf("failed to parse %s record at offset %d: %w", record.Type, recordStart, err)
		}

		consumed := reader.BytesRead() - recordStart
		if consumed != int64(record.Length) {
			return nil, fmt.Errorf("%s record: consumed %d bytes, expected %d", record.Type, consumed, record.Length)
		}
	}

	logger.Debug("parsed hprof",
		"bytes", reader.BytesRead(),
		"records", total(recordCounts),
		"sub_records", total(subRecordCounts),
		"classes", heap.Classes.Count(),
		"threads", heap.Threads.Count(),
		"instances", heap.Objects.InstanceCount(),
	)

	return heap, nil
}

func parseRecord(reader *BinaryReader, record *model.HprofRecord, heap *registry.HeapRegistries,
	subRecordCounts map[model.HProfTagSubRecord]int,
) error {
	switch record.Type {
	case model.HPROF_UTF8:
		body, err := ParseUTF8(reader, record.Length)
		if err != nil {
			return err
		}
		heap.Strings.Add(body.StringID, body.Text)

	case model.HPROF_LOAD_CLASS:
		body, err := ParseLoadClass(reader)
		if err != nil {
			return err
		}
		heap.Classes.AddLoadedClass(body, heap.Strings.GetOrUnresolved(body.ClassNameID))

	case model.HPROF_FRAME:
		body, err := ParseStackFrame(reader)
		if err != nil {
			return err
		}
		heap.Stack.AddFrame(body)

	case model.HPROF_TRACE:
		body, err := ParseStackTrace(reader)
		if err != nil {
			return err
		}
		heap.Stack.AddTrace(body)

	case model.HPROF_START_THREAD:
		body, err := ParseStartThread(reader)
		if err != nil {
			return err
		}
		heap.Threads.StartThread(body, heap.Strings)

	case model.HPROF_HEAP_DUMP, model.HPROF_HEAP_DUMP_SEGMENT:
		counts, err := ParseHeapDumpSegment(reader, record.Length, heap)
		if err != nil {
			return err
		}
		for tag, n := range counts {
			subRecordCounts[tag] += n
		}

	case model.HPROF_HEAP_DUMP_END:
		if record.Length != 0 {
			return fmt.Errorf("HEAP_DUMP_END should have zero length, got %d", record.Length)
		}

	default:
		// UNLOAD_CLASS, END_THREAD, ALLOC_SITES, HEAP_SUMMARY, CPU_SAMPLES, CONTROL_SETTINGS
		return reader.Skip(int(record.Length))
	}

	return nil
}

func total[K comparable](counts map[K]int) int {
	n := 0
	for v := range maps.Values(counts) {
		n += v
	}
	return n
}
