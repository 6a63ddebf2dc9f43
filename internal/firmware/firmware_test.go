package firmware

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	records := []Record{
		{Value: 0x0000, Payload: []byte{0x01, 0x02, 0x03}},
		{Value: 0x0001, Payload: []byte{}},
		{Value: 0x00E6, Payload: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
	}

	blob := Encode(records)
	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i, r := range records {
		if decoded[i].Value != r.Value {
			t.Fatalf("record %d value = 0x%X, want 0x%X", i, decoded[i].Value, r.Value)
		}
		if !bytes.Equal(decoded[i].Payload, r.Payload) {
			t.Fatalf("record %d payload = %v, want %v", i, decoded[i].Payload, r.Payload)
		}
	}
}

func TestDecodeEmptyBlobYieldsNoRecords(t *testing.T) {
	decoded, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected 0 records, got %d", len(decoded))
	}
}

func TestDecodeTruncatedHeaderErrors(t *testing.T) {
	if _, err := Decode([]byte{0x01, 0x00}); err == nil {
		t.Fatal("expected an error for a truncated record header")
	}
}

func TestDecodeTruncatedPayloadErrors(t *testing.T) {
	blob := []byte{0x05, 0x00, 0x00, 0x00, 0x01, 0x02} // declares 5 payload bytes, only 2 present
	if _, err := Decode(blob); err == nil {
		t.Fatal("expected an error for a truncated payload")
	}
}
