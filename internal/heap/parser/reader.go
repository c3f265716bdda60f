package parser

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/mabhi256/hangdiag/internal/heap/model"
)

// Provides utilities for reading binary data in big-endian format
type BinaryReader struct {
	reader    *bufio.Reader
	bytesRead int64
	header    *model.HprofHeader
}

func NewBinaryReader(reader io.Reader) *BinaryReader {
	return &BinaryReader{
		reader: bufio.NewReader(reader),
	}
}

func (br *BinaryReader) BytesRead() int64 {
	return br.bytesRead
}

// may be nil if not yet parsed
func (br *BinaryReader) Header() *model.HprofHeader {
	return br.header
}

func (br *BinaryReader) IdentifierSize() int {
	if br.header == nil {
		return 0
	}
	return int(br.header.IdentifierSize)
}

// ReadNBytes reads exactly n bytes and tracks position
func (br *BinaryReader) ReadNBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	bytesRead, err := io.ReadFull(br.reader, buf)
	br.bytesRead += int64(bytesRead)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadString reads a null-terminated string
func (br *BinaryReader) ReadString() (string, error) {
	str, err := br.reader.ReadString('\x00')
	br.bytesRead += int64(len(str))
	if err != nil {
		return "", err
	}
	return str[:len(str)-1], nil
}

func (br *BinaryReader) ReadU1() (uint8, error) {
	b, err := br.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	br.bytesRead++
	return b, nil
}

func (br *BinaryReader) ReadU2() (uint16, error) {
	buf, err := br.ReadNBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (br *BinaryReader) ReadU4() (uint32, error) {
	buf, err := br.ReadNBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (br *BinaryReader) ReadU8() (uint64, error) {
	buf, err := br.ReadNBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

func (br *BinaryReader) ReadI4() (int32, error) {
	v, err := br.ReadU4()
	return int32(v), err
}

// ReadID reads an object ID (size depends on header.IdentifierSize)
func (br *BinaryReader) ReadID() (model.ID, error) {
	switch br.IdentifierSize() {
	case 4:
		val, err := br.ReadU4()
		return model.ID(val), err
	case 8:
		val, err := br.ReadU8()
		return model.ID(val), err
	case 0:
		return 0, fmt.Errorf("header not parsed yet")
	default:
		return 0, fmt.Errorf("invalid identifier size: %d", br.header.IdentifierSize)
	}
}

// Skip discards n bytes without allocating them
func (br *BinaryReader) Skip(n int) error {
	discarded, err := br.reader.Discard(n)
	br.bytesRead += int64(discarded)
	if err != nil {
		return fmt.Errorf("failed to skip %d bytes: %w", n, err)
	}
	return nil
}

// ReadRecordHeader reads the tag, time offset and length of a top-level record.
// io.EOF is returned unwrapped at a clean end of file.
func (br *BinaryReader) ReadRecordHeader() (*model.HprofRecord, error) {
	recordType, err := br.ReadU1()
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record type: %w", err)
	}

	offset, err := br.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read time offset: %w", err)
	}

	length, err := br.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read record length: %w", err)
	}

	return &model.HprofRecord{
		Type:       model.HProfTagRecord(recordType),
		TimeOffset: offset,
		Length:     length,
	}, nil
}

/*
*	ParseHeader parses the HPROF file header
*
*	"JAVA PROFILE 1.0.2\0"		Null-terminated string
*	u4                    		Size of IDs (usually pointer size)
*	u4                    		High word of timestamp
*	u4                    		Low word of timestamp (ms since 1/1/70)
 */
func ParseHeader(reader *BinaryReader) (*model.HprofHeader, error) {
	format, err := reader.ReadString()
	if err != nil {
		return nil, fmt.Errorf("unable to read format: %w", err)
	}
	if format != model.HprofFormat {
		return nil, fmt.Errorf("invalid format: %q", format)
	}

	identifierSize, err := reader.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier size: %w", err)
	}
	if identifierSize != 4 && identifierSize != 8 {
		return nil, fmt.Errorf("invalid identifierSize: %d", identifierSize)
	}

	tsMilli, err := reader.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamp: %w", err)
	}

	header := &model.HprofHeader{
		Format:         format,
		IdentifierSize: identifierSize,
		Timestamp:      time.UnixMilli(int64(tsMilli)),
	}
	reader.header = header

	return header, nil
}
