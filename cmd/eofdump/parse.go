package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nervosnetwork/evmone/core/vm"
	"github.com/nervosnetwork/evmone/crypto"
	"github.com/nervosnetwork/evmone/params"
)

// dumpContainer validates code under rev and renders a one-line layout
// summary: version, code section range, data size, table sizes and the
// keccak hash of the code section.
func dumpContainer(rev params.Revision, code []byte) (string, error) {
	if err := vm.ValidateEOF(rev, code); err != nil {
		return "", err
	}
	switch vm.ReadEOFVersion(code) {
	case vm.EOFVersion1:
		h := vm.ReadValidEOF1Header(code)
		return fmt.Sprintf("version=1 code=[%d,%d) data=%d codehash=%v",
			h.CodeBegin(), h.CodeEnd(), h.DataSize,
			crypto.Keccak256Hash(code[h.CodeBegin():h.CodeEnd()])), nil
	case vm.EOFVersion2:
		h := vm.ReadValidEOF2Header(code)
		return fmt.Sprintf("version=2 code=[%d,%d) data=%d tables=%v tablesBegin=%d codehash=%v",
			h.CodeBegin(), h.CodeEnd(), h.DataSize, h.TableSizes, h.TablesBegin(),
			crypto.Keccak256Hash(code[h.CodeBegin():h.CodeEnd()])), nil
	default:
		// unreachable once ValidateEOF has passed
		return "", vm.ErrEOFVersionUnknown
	}
}

// dumpAll reads hex-encoded containers from r, one per line, and writes
// one result line per input to w. Blank lines and #-comments are
// skipped. It returns the number of inputs that failed validation.
func dumpAll(w io.Writer, r io.Reader, rev params.Revision) (int, error) {
	var failed int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code := common.FromHex(line)
		out, err := dumpContainer(rev, code)
		if err != nil {
			failed++
			fmt.Fprintf(w, "err: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "OK %s\n", out)
	}
	return failed, scanner.Err()
}
