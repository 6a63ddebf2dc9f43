// Package firmware decodes and encodes the record framing the 6022/602A
// generation's firmware blob uses for its upload-by-control-transfer
// protocol.
//
// Grounded on original_source/libOpenHantek60xx/hantekDevice.cpp's
// uploadFirmware loop: each record is a little-endian 16-bit size, a
// little-endian 16-bit value (the control transfer's wValue), then
// `size` bytes of payload, repeated until the blob is exhausted. This
// package only frames/unframes that byte layout — issuing the actual
// control transfers is internal/device's job, matching this repo's
// data-transform-vs-transport split (internal/buffer packs message
// bytes, internal/transport moves them).
package firmware

import (
	"encoding/binary"
	"fmt"
)

// Record is one firmware chunk: Value becomes the control transfer's
// wValue field, Payload is written to the device unchanged.
type Record struct {
	Value   uint16
	Payload []byte
}

// Decode splits a raw firmware blob into its records. The original
// source tracks a separate "records remaining" counter seeded from the
// blob's byte length (a mismatch left over from a copy-paste of the
// byte-size constant); this reimplementation decodes until the blob is
// exhausted instead, which is what that loop was evidently meant to do.
func Decode(blob []byte) ([]Record, error) {
	var records []Record
	pos := 0
	for pos < len(blob) {
		if pos+4 > len(blob) {
			return nil, fmt.Errorf("firmware: truncated record header at offset %d", pos)
		}
		size := binary.LittleEndian.Uint16(blob[pos : pos+2])
		value := binary.LittleEndian.Uint16(blob[pos+2 : pos+4])
		pos += 4

		if pos+int(size) > len(blob) {
			return nil, fmt.Errorf("firmware: record at offset %d declares %d payload bytes, only %d remain", pos-4, size, len(blob)-pos)
		}
		payload := make([]byte, size)
		copy(payload, blob[pos:pos+int(size)])
		pos += int(size)

		records = append(records, Record{Value: value, Payload: payload})
	}
	return records, nil
}

// Encode reassembles records into the wire blob Decode would consume.
// Used by tests to round-trip and by callers building a firmware image
// from individually-generated chunks.
func Encode(records []Record) []byte {
	var out []byte
	for _, r := range records {
		header := make([]byte, 4)
		binary.LittleEndian.PutUint16(header[0:2], uint16(len(r.Payload)))
		binary.LittleEndian.PutUint16(header[2:4], r.Value)
		out = append(out, header...)
		out = append(out, r.Payload...)
	}
	return out
}
