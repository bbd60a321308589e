package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/mojitote/docsearch/pkg/errors"
)

// Snapshot file layout: a fixed-size little-endian header followed by the
// payload (JSON, zstd-compressed when the flag bit is set). The CRC covers
// the payload exactly as stored, so corruption is detected before any
// decompression or parsing happens.
const (
	MagicBytes    uint32 = 0x44535631 // "DSV1"
	FormatVersion uint32 = 1
	HeaderSize    int    = 32

	flagCompressed uint32 = 1 << 0
)

// Snapshot is the full serializable state of the index: every document plus
// the term -> doc id -> frequency postings. It is the only structure the
// persistence layer knows about.
type Snapshot struct {
	Documents map[string]Document       `json:"documents"`
	Postings  map[string]map[string]int `json:"postings"`
	SavedAt   time.Time                 `json:"saved_at"`
}

// Document mirrors the engine's document record in serialized form.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Author     string    `json:"author,omitempty"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Empty returns a Snapshot with no documents or postings, used for cold
// starts when nothing on disk is recoverable.
func Empty() Snapshot {
	return Snapshot{
		Documents: make(map[string]Document),
		Postings:  make(map[string]map[string]int),
	}
}

// Encode serializes a snapshot into the on-disk format.
func Encode(snap Snapshot, compress bool) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	var flags uint32
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		payload = enc.EncodeAll(payload, nil)
		enc.Close()
		flags |= flagCompressed
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], flags)
	binary.LittleEndian.PutUint32(buf[12:16], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(len(payload)))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(snap.SavedAt.Unix()))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Decode parses and validates the on-disk format. Every structural failure
// (short file, bad magic, unknown version, length or checksum mismatch,
// undecodable payload) is reported as ErrSnapshotCorrupt so callers can
// trigger backup fallback.
func Decode(data []byte) (Snapshot, error) {
	if len(data) < HeaderSize {
		return Snapshot{}, fmt.Errorf("%w: file shorter than header (%d bytes)", apperrors.ErrSnapshotCorrupt, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicBytes {
		return Snapshot{}, fmt.Errorf("%w: bad magic bytes %#x", apperrors.ErrSnapshotCorrupt, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported format version %d", apperrors.ErrSnapshotCorrupt, version)
	}
	flags := binary.LittleEndian.Uint32(data[8:12])
	wantCRC := binary.LittleEndian.Uint32(data[12:16])
	payloadLen := binary.LittleEndian.Uint64(data[16:24])

	payload := data[HeaderSize:]
	if uint64(len(payload)) != payloadLen {
		return Snapshot{}, fmt.Errorf("%w: payload length %d does not match header %d",
			apperrors.ErrSnapshotCorrupt, len(payload), payloadLen)
	}
	if got := crc32.ChecksumIEEE(payload); got != wantCRC {
		return Snapshot{}, fmt.Errorf("%w: checksum mismatch (got %#x, want %#x)",
			apperrors.ErrSnapshotCorrupt, got, wantCRC)
	}

	if flags&flagCompressed != 0 {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Snapshot{}, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: decompressing payload: %v", apperrors.ErrSnapshotCorrupt, err)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parsing payload: %v", apperrors.ErrSnapshotCorrupt, err)
	}
	if snap.Documents == nil {
		snap.Documents = make(map[string]Document)
	}
	if snap.Postings == nil {
		snap.Postings = make(map[string]map[string]int)
	}
	return snap, nil
}
