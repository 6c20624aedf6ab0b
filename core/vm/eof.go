package vm

import (
	"encoding/binary"
	"errors"

	"github.com/nervosnetwork/evmone/params"
)

// Container framing bytes. An EOF container opens with the format byte,
// the two magic bytes, and a version byte; everything after that is the
// section header region followed by the section bodies.
const (
	EOFFormat byte = 0xEF
	EOFMagic0 byte = 0xCA
	EOFMagic1 byte = 0xFE

	EOFVersion1 byte = 0x01
	EOFVersion2 byte = 0x02
)

// Section id markers used in the header region.
const (
	EOFHeaderTerminator byte = 0x00
	EOFSectionCode      byte = 0x01
	EOFSectionData      byte = 0x02
	EOFSectionTable     byte = 0x03 // version 2 and later
)

// eofPrologueSize is the byte count of format + magic + version; the
// section headers start right after it.
const eofPrologueSize = 4

var (
	ErrEOFInvalidPrefix            = errors.New("eof: invalid prefix")
	ErrEOFVersionUnknown           = errors.New("eof: unknown version")
	ErrEOFIncompleteSectionSize    = errors.New("eof: incomplete section size")
	ErrEOFHeadersNotTerminated     = errors.New("eof: section headers not terminated")
	ErrEOFInvalidSectionBodiesSize = errors.New("eof: declared section sizes do not match container size")
	ErrEOFUnknownSectionID         = errors.New("eof: unknown section id")
	ErrEOFCodeSectionMissing       = errors.New("eof: code section missing")
	ErrEOFMultipleCodeSections     = errors.New("eof: multiple code sections")
	ErrEOFMultipleDataSections     = errors.New("eof: multiple data sections")
	ErrEOFZeroSectionSize          = errors.New("eof: zero section size")
	ErrEOFOddTableSectionSize      = errors.New("eof: odd table section size")
)

// IsEOF reports whether code carries the EOF prefix. Anything else is
// legacy bytecode.
func IsEOF(code []byte) bool {
	return len(code) > 2 && code[0] == EOFFormat && code[1] == EOFMagic0 && code[2] == EOFMagic1
}

// ReadEOFVersion returns the container's version byte, or 0 if code is
// not an EOF container. Callers must treat 0 as legacy bytecode.
func ReadEOFVersion(code []byte) byte {
	if len(code) >= eofPrologueSize && IsEOF(code) {
		return code[3]
	}
	return 0
}

// eofSectionHeaders is the decoded header region: the declared sizes of
// the code and data sections (data 0 when the section is absent) and
// the table section sizes in declaration order.
type eofSectionHeaders struct {
	codeSize   uint16
	hasCode    bool
	dataSize   uint16
	hasData    bool
	tableSizes []uint16
}

// Header parser states.
const (
	stateSectionID = iota
	stateSectionSize
	stateTerminated
)

// validateEOFHeaders walks the section header region starting just past
// the version byte and returns the declared section sizes. It enforces
// ordering (code first), uniqueness (one code, at most one data),
// version gating of table sections, nonzero and even-table sizes, the
// terminator, and the exact match between declared sizes and the bytes
// remaining after the header.
func validateEOFHeaders(version byte, code []byte) (eofSectionHeaders, error) {
	var (
		headers   eofSectionHeaders
		state     = stateSectionID
		sectionID byte
		pos       = eofPrologueSize
	)
	for pos < len(code) && state != stateTerminated {
		switch state {
		case stateSectionID:
			sectionID = code[pos]
			switch sectionID {
			case EOFHeaderTerminator:
				if !headers.hasCode {
					return eofSectionHeaders{}, ErrEOFCodeSectionMissing
				}
				state = stateTerminated
			case EOFSectionCode:
				if headers.hasCode {
					return eofSectionHeaders{}, ErrEOFMultipleCodeSections
				}
				state = stateSectionSize
			case EOFSectionData:
				if !headers.hasCode {
					return eofSectionHeaders{}, ErrEOFCodeSectionMissing
				}
				if headers.hasData {
					return eofSectionHeaders{}, ErrEOFMultipleDataSections
				}
				state = stateSectionSize
			case EOFSectionTable:
				if version < EOFVersion2 {
					return eofSectionHeaders{}, ErrEOFUnknownSectionID
				}
				if !headers.hasCode {
					return eofSectionHeaders{}, ErrEOFCodeSectionMissing
				}
				state = stateSectionSize
			default:
				return eofSectionHeaders{}, ErrEOFUnknownSectionID
			}

		case stateSectionSize:
			if pos+1 >= len(code) {
				return eofSectionHeaders{}, ErrEOFIncompleteSectionSize
			}
			size := binary.BigEndian.Uint16(code[pos : pos+2])
			pos++
			if size == 0 {
				return eofSectionHeaders{}, ErrEOFZeroSectionSize
			}
			if sectionID == EOFSectionTable && size%2 != 0 {
				return eofSectionHeaders{}, ErrEOFOddTableSectionSize
			}
			switch sectionID {
			case EOFSectionCode:
				headers.codeSize = size
				headers.hasCode = true
			case EOFSectionData:
				headers.dataSize = size
				headers.hasData = true
			case EOFSectionTable:
				headers.tableSizes = append(headers.tableSizes, size)
			}
			state = stateSectionID
		}
		pos++
	}

	if state != stateTerminated {
		return eofSectionHeaders{}, ErrEOFHeadersNotTerminated
	}

	// Declared sizes must account for every byte after the terminator:
	// no truncation, no trailing garbage.
	declared := int(headers.codeSize) + int(headers.dataSize)
	for _, ts := range headers.tableSizes {
		declared += int(ts)
	}
	if declared != len(code)-pos {
		return eofSectionHeaders{}, ErrEOFInvalidSectionBodiesSize
	}
	return headers, nil
}

// EOF1Header is the decoded header of a version 1 container. DataSize 0
// means the container has no data section; a declared zero-size data
// section is rejected by the validator.
type EOF1Header struct {
	CodeSize uint16
	DataSize uint16
}

// CodeBegin returns the container offset of the first code byte.
func (h EOF1Header) CodeBegin() int {
	if h.DataSize == 0 {
		return eofPrologueSize + 3 + 1 // code header, terminator
	}
	return eofPrologueSize + 3 + 3 + 1 // code header, data header, terminator
}

// CodeEnd returns the container offset one past the last code byte.
func (h EOF1Header) CodeEnd() int {
	return h.CodeBegin() + int(h.CodeSize)
}

// EOF2Header is the decoded header of a version 2 container. TableSizes
// holds the declared table section sizes in declaration order; tables
// are addressed positionally by that order.
type EOF2Header struct {
	CodeSize   uint16
	DataSize   uint16
	TableSizes []uint16
}

// CodeBegin returns the container offset of the first code byte.
func (h EOF2Header) CodeBegin() int {
	size := eofPrologueSize + 3 // code section header
	if h.DataSize != 0 {
		size += 3 // data section header
	}
	size += 3 * len(h.TableSizes)
	return size + 1 // terminator
}

// CodeEnd returns the container offset one past the last code byte.
func (h EOF2Header) CodeEnd() int {
	return h.CodeBegin() + int(h.CodeSize)
}

// TablesBegin returns the container offset of the first table body.
// Bodies are laid out code, data, tables.
func (h EOF2Header) TablesBegin() int {
	return h.CodeEnd() + int(h.DataSize)
}

// ValidateEOF1 validates code as a version 1 container and returns its
// decoded header.
func ValidateEOF1(code []byte) (EOF1Header, error) {
	headers, err := validateEOFHeaders(EOFVersion1, code)
	if err != nil {
		return EOF1Header{}, err
	}
	return EOF1Header{CodeSize: headers.codeSize, DataSize: headers.dataSize}, nil
}

// ValidateEOF2 validates code as a version 2 container and returns its
// decoded header.
func ValidateEOF2(code []byte) (EOF2Header, error) {
	headers, err := validateEOFHeaders(EOFVersion2, code)
	if err != nil {
		return EOF2Header{}, err
	}
	return EOF2Header{
		CodeSize:   headers.codeSize,
		DataSize:   headers.dataSize,
		TableSizes: headers.tableSizes,
	}, nil
}

// ReadValidEOF1Header decodes the header of an already-validated
// version 1 container without bounds checks. The interpreter re-enters
// validated code on every call; this is its cheap path. Behavior on a
// container that has not passed ValidateEOF1 is undefined.
func ReadValidEOF1Header(code []byte) EOF1Header {
	var h EOF1Header
	for pos := eofPrologueSize; code[pos] != EOFHeaderTerminator; pos += 3 {
		size := binary.BigEndian.Uint16(code[pos+1 : pos+3])
		switch code[pos] {
		case EOFSectionCode:
			h.CodeSize = size
		case EOFSectionData:
			h.DataSize = size
		}
	}
	return h
}

// ReadValidEOF2Header decodes the header of an already-validated
// version 2 container without bounds checks. Behavior on a container
// that has not passed ValidateEOF2 is undefined.
func ReadValidEOF2Header(code []byte) EOF2Header {
	var h EOF2Header
	for pos := eofPrologueSize; code[pos] != EOFHeaderTerminator; pos += 3 {
		size := binary.BigEndian.Uint16(code[pos+1 : pos+3])
		switch code[pos] {
		case EOFSectionCode:
			h.CodeSize = size
		case EOFSectionData:
			h.DataSize = size
		case EOFSectionTable:
			h.TableSizes = append(h.TableSizes, size)
		}
	}
	return h
}

// ValidateEOF validates code as an EOF container under the given chain
// revision. It returns nil on success, ErrEOFInvalidPrefix for legacy
// bytecode, ErrEOFVersionUnknown for versions the revision does not
// recognize, and the detailed header error otherwise. The same bytes
// may be legal at one revision and illegal at an earlier one.
func ValidateEOF(rev params.Revision, code []byte) error {
	if !IsEOF(code) {
		return ErrEOFInvalidPrefix
	}
	switch ReadEOFVersion(code) {
	case EOFVersion1:
		if rev < params.Shanghai {
			return ErrEOFVersionUnknown
		}
		_, err := ValidateEOF1(code)
		return err
	case EOFVersion2:
		if rev < params.Shanghai {
			return ErrEOFVersionUnknown
		}
		_, err := ValidateEOF2(code)
		return err
	default:
		return ErrEOFVersionUnknown
	}
}

// EncodeEOF1 builds a canonical version 1 container around the given
// code and data bodies. An empty data slice omits the data section
// header entirely; a zero-size header triple is never emitted.
func EncodeEOF1(code, data []byte) []byte {
	size := eofPrologueSize + 3 + 1 + len(code) + len(data)
	if len(data) > 0 {
		size += 3
	}
	buf := make([]byte, 0, size)
	buf = append(buf, EOFFormat, EOFMagic0, EOFMagic1, EOFVersion1)
	buf = append(buf, EOFSectionCode)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(code)))
	if len(data) > 0 {
		buf = append(buf, EOFSectionData)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(data)))
	}
	buf = append(buf, EOFHeaderTerminator)
	buf = append(buf, code...)
	buf = append(buf, data...)
	return buf
}

// EncodeEOF2 builds a canonical version 2 container: header triples in
// code, data, tables order, bodies concatenated the same way.
func EncodeEOF2(code, data []byte, tables [][]byte) []byte {
	size := eofPrologueSize + 3 + 3*len(tables) + 1 + len(code) + len(data)
	if len(data) > 0 {
		size += 3
	}
	for _, tbl := range tables {
		size += len(tbl)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, EOFFormat, EOFMagic0, EOFMagic1, EOFVersion2)
	buf = append(buf, EOFSectionCode)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(code)))
	if len(data) > 0 {
		buf = append(buf, EOFSectionData)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(data)))
	}
	for _, tbl := range tables {
		buf = append(buf, EOFSectionTable)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(tbl)))
	}
	buf = append(buf, EOFHeaderTerminator)
	buf = append(buf, code...)
	buf = append(buf, data...)
	for _, tbl := range tables {
		buf = append(buf, tbl...)
	}
	return buf
}
