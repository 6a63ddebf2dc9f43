package registry

import (
	"testing"

	"github.com/google/gousb"

	"scope-service/internal/model"
)

func TestLookupUnknownVendorReturnsUnknownModelStatus(t *testing.T) {
	db := NewDatabase()
	_, err := db.Lookup(0xDEAD, 0xBEEF)
	if err == nil {
		t.Fatal("expected error for unknown vendor id")
	}
	if model.CodeOf(err) != model.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", model.CodeOf(err))
	}
}

func TestLookupUnknownProductForKnownVendor(t *testing.T) {
	db := NewDatabase()
	_, err := db.Lookup(0x04B4, 0x9999)
	if model.CodeOf(err) != model.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", model.CodeOf(err))
	}
}

func TestLookupFirmwareRequiredIsDistinctFromUnknownModel(t *testing.T) {
	db := NewDatabase()
	rec, err := db.Lookup(0x04B4, gousb.ID(model.ProductDSO6022))
	if err == nil {
		t.Fatal("expected firmware-required error")
	}
	if rec.DisplayName != "DSO-6022BE" {
		t.Fatalf("expected the record to still be returned, got %+v", rec)
	}
	if err.Error() == "" {
		t.Fatal("expected a descriptive firmware-required message")
	}
}

func TestLookupKnownModel(t *testing.T) {
	db := NewDatabase()
	rec, err := db.Lookup(0x04B4, gousb.ID(model.ProductDSO2090))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.Generation != model.Gen2090_2150 {
		t.Fatalf("expected Gen2090_2150, got %v", rec.Generation)
	}
}

func TestSpecForDistinguishes2090From2150(t *testing.T) {
	rec2090 := model.ModelRecord{ProductID: model.ProductDSO2090, Generation: model.Gen2090_2150}
	rec2150 := model.ModelRecord{ProductID: model.ProductDSO2150, Generation: model.Gen2090_2150}

	spec2090 := SpecFor(rec2090)
	spec2150 := SpecFor(rec2150)

	if spec2090.Single.MaxHz != 50e6 {
		t.Fatalf("2090 single max = %v, want 50e6", spec2090.Single.MaxHz)
	}
	if spec2150.Single.MaxHz != 75e6 {
		t.Fatalf("2150 single max = %v, want 75e6", spec2150.Single.MaxHz)
	}
}

func TestResolveBundlesRecordSpecAndCatalog(t *testing.T) {
	db := NewDatabase()
	resolved, err := db.Resolve(0x04B5, gousb.ID(model.ProductDSO5200))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Catalog.Generation != model.Gen5200 {
		t.Fatalf("expected Gen5200 catalog, got %v", resolved.Catalog.Generation)
	}
	if resolved.Spec.SampleSizeBits != 10 {
		t.Fatalf("expected 10-bit spec for 5200, got %d", resolved.Spec.SampleSizeBits)
	}
}
