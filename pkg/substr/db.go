package substr

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/solrex/dictx/pkg/dat"
)

// Database block tags, in file order after the trie payload.
const (
	tagPool   = "DWDP"
	tagDwords = "DWAR"
	tagIDPool = "IDAR"
	tagIindex = "IIND"
)

// writeDB serialises the loaded database: the trie payload followed by the
// four tagged blocks, each a 4-byte tag, a uint32 payload size and the
// payload. Little-endian throughout, no footer.
func (e *Engine) writeDB(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("substr: create database: %w", err)
	}
	w := bufio.NewWriter(f)

	werr := func() error {
		if _, err := e.trie.WriteTo(w); err != nil {
			return err
		}
		if err := writeBlock(w, tagPool, e.pool); err != nil {
			return err
		}
		if err := writeBlock(w, tagDwords, e.dwords); err != nil {
			return err
		}
		if err := writeBlock(w, tagIDPool, e.idPool); err != nil {
			return err
		}
		if err := writeBlock(w, tagIindex, e.iindex); err != nil {
			return err
		}
		return w.Flush()
	}()
	if werr != nil {
		f.Close()
		return fmt.Errorf("substr: write database: %w", werr)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("substr: write database: %w", err)
	}
	return nil
}

func writeBlock(w io.Writer, tag string, payload any) error {
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	size := uint32(binary.Size(payload))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, payload)
}

// Read loads a database written by Build and returns the number of bytes
// consumed. On any I/O or format error it returns 0 with the error and the
// engine stays unloaded.
func (e *Engine) Read(path string) (int64, error) {
	e.Clear()

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("substr: open database: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	trie := new(dat.Trie)
	n, err := trie.ReadFrom(r)
	if err != nil {
		return 0, fmt.Errorf("substr: read database: %w", err)
	}

	pool, pn, err := readBlock(r, tagPool)
	if err != nil {
		return 0, err
	}
	n += pn

	raw, bn, err := readBlock(r, tagDwords)
	if err != nil {
		return 0, err
	}
	n += bn
	dwords, err := decodePairs[dwordRef](raw, tagDwords)
	if err != nil {
		return 0, err
	}

	raw, bn, err = readBlock(r, tagIDPool)
	if err != nil {
		return 0, err
	}
	n += bn
	if len(raw)%4 != 0 {
		return 0, fmt.Errorf("%w: %s payload size %d", ErrBadBlock, tagIDPool, len(raw))
	}
	idPool := make([]uint32, len(raw)/4)
	for i := range idPool {
		idPool[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}

	raw, bn, err = readBlock(r, tagIindex)
	if err != nil {
		return 0, err
	}
	n += bn
	iindex, err := decodePairs[listRef](raw, tagIindex)
	if err != nil {
		return 0, err
	}

	e.trie = trie
	e.pool = pool
	e.dwords = dwords
	e.idPool = idPool
	e.iindex = iindex

	log.Debugf("Read database from %s: %d bytes, %d words, %d suffixes",
		path, n, len(dwords), len(iindex))
	return n, nil
}

// readBlock consumes one tagged block and returns its payload and the bytes
// consumed including the header.
func readBlock(r io.Reader, tag string) ([]byte, int64, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %s header: %v", ErrBadBlock, tag, err)
	}
	if string(hdr[:4]) != tag {
		return nil, 0, fmt.Errorf("%w: want tag %s, got %q", ErrBadBlock, tag, hdr[:4])
	}
	size := binary.LittleEndian.Uint32(hdr[4:])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, 0, fmt.Errorf("%w: %s payload truncated: %v", ErrBadBlock, tag, err)
	}
	return payload, int64(8 + size), nil
}

// decodePairs reinterprets a payload as an array of (uint32, uint32) pairs.
func decodePairs[T dwordRef | listRef](raw []byte, tag string) ([]T, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("%w: %s payload size %d", ErrBadBlock, tag, len(raw))
	}
	out := make([]T, len(raw)/8)
	if len(out) > 0 {
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrBadBlock, tag, err)
		}
	}
	return out, nil
}
