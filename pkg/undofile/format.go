// Package undofile reads and writes the durable binary representation
// of a [undofile/pkg/undo.State], per spec §6.1.
// The format is bit-exact: fixed magic byte sequences delimit each
// section, every multi-byte integer is big-endian, and header-to-header
// links are stored as the target's sequence number rather than a
// pointer, resolved back to pointers on load ("pointer swizzling").
package undofile

// startMagic opens every undo file. Mirrors Vim's own magic bytes so
// the format stays bit-compatible with what it was distilled from.
var startMagic = [9]byte{'V', 'i', 'm', 0x9f, 'U', 'n', 'D', 'o', 0xe5}

// formatVersion is the only version this package reads or writes.
const formatVersion uint16 = 0x0003

const (
	headerMagic   uint16 = 0x5fd0 // prefixes every Header record
	endOfHeaders  uint16 = 0xe7aa // terminates the Header* sequence
	entryMagic    uint16 = 0xf518 // prefixes every Entry and ExtmarkEntry record
	entryEndMagic uint16 = 0x3581 // terminates an Entry* or ExtmarkEntry* run
)

// Optional-field tags. Each OptionalFields block is a sequence of
// (len byte, tag byte, payload) triples terminated by a zero length
// byte; the tag's meaning is scoped to whichever record the block sits
// in (a file-header block and a Header block can reuse the same tag
// value for unrelated fields).
const (
	optTagLastSaveNr byte = 0x01 // file header: SaveNrLast (4-byte payload)
	optTagSaveNr     byte = 0x01 // Header: SaveNr (4-byte payload)
)
