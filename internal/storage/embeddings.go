package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Embedding matrix file layout (v1):
//
//	0..7   magic "KBEMBD01"
//	8..15  dim (uint64)
//	16..23 count (uint64)
//	24..   count*dim float32 values, little endian, row-major
var embeddingsMagic = [8]byte{'K', 'B', 'E', 'M', 'B', 'D', '0', '1'}

// writeEmbeddings writes the matrix to path, overwriting any previous file.
func writeEmbeddings(path string, dim int, rows [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(embeddingsMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(dim)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(rows))); err != nil {
		return err
	}
	for _, row := range rows {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// readEmbeddings reads the full matrix from path.
func readEmbeddings(path string) (dim int, rows [][]float32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("%w: short header", ErrCorruptIndex)
	}
	if magic != embeddingsMagic {
		return 0, nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, magic[:])
	}

	var dim64, count64 uint64
	if err := binary.Read(r, binary.LittleEndian, &dim64); err != nil {
		return 0, nil, fmt.Errorf("%w: missing dim", ErrCorruptIndex)
	}
	if err := binary.Read(r, binary.LittleEndian, &count64); err != nil {
		return 0, nil, fmt.Errorf("%w: missing count", ErrCorruptIndex)
	}
	if dim64 == 0 && count64 > 0 {
		return 0, nil, fmt.Errorf("%w: zero dim with %d rows", ErrCorruptIndex, count64)
	}

	// The header is untrusted: verify the claimed matrix fits in the file
	// before allocating anything sized by it.
	info, err := f.Stat()
	if err != nil {
		return 0, nil, err
	}
	remaining := uint64(info.Size()) - uint64(len(embeddingsMagic)) - 16
	if dim64 > 0 {
		if dim64 > remaining/4 || count64 > remaining/(4*dim64) {
			return 0, nil, fmt.Errorf("%w: header claims %d x %d floats, file holds %d bytes",
				ErrCorruptIndex, count64, dim64, remaining)
		}
	}

	rows = make([][]float32, count64)
	for i := range rows {
		row := make([]float32, dim64)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return 0, nil, fmt.Errorf("%w: truncated matrix at row %d", ErrCorruptIndex, i)
		}
		rows[i] = row
	}
	return int(dim64), rows, nil
}
