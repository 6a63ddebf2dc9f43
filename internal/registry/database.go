// Package registry resolves a USB vendor/product id pair to the
// static capability data a connected DSO needs: its ModelRecord, its
// DeviceSpecification, and its protocol catalog (spec §3, §4.1, §6).
//
// Grounded on device-service/internal/discovery/usb/database.go's
// nested vendor-id -> product-id map, generalized from
// vendor/model/capability metadata to vendor/model/protocol-catalog
// metadata.
package registry

import (
	"github.com/google/gousb"

	"scope-service/internal/catalog"
	"scope-service/internal/model"
)

// Database holds the known Hantek-family vendor/product entries.
type Database struct {
	vendors map[gousb.ID]map[gousb.ID]model.ModelRecord
}

// NewDatabase builds the fixed registry of recognized DSO models
// (spec §3, §6). Vendor id 0x04B4 covers the 2090/2150/2250/6022
// family; 0x04B5 covers the 5200/5200A pair.
func NewDatabase() *Database {
	db := &Database{
		vendors: make(map[gousb.ID]map[gousb.ID]model.ModelRecord),
	}

	primary := gousb.ID(0x04B4)
	db.add(primary, model.ModelRecord{
		VendorID: 0x04B4, ProductID: model.ProductDSO2090,
		DisplayName: "DSO-2090", Generation: model.Gen2090_2150,
		Endpoints: model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:  2, SampleSizeBits: 8,
	})
	db.add(primary, model.ModelRecord{
		VendorID: 0x04B4, ProductID: model.ProductDSO2150,
		DisplayName: "DSO-2150", Generation: model.Gen2090_2150,
		Unofficial: true,
		Endpoints:  model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:   2, SampleSizeBits: 8,
	})
	db.add(primary, model.ModelRecord{
		VendorID: 0x04B4, ProductID: model.ProductDSO2250,
		DisplayName: "DSO-2250", Generation: model.Gen2250,
		Endpoints: model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:  2, SampleSizeBits: 8,
	})
	db.add(primary, model.ModelRecord{
		VendorID: 0x04B4, ProductID: model.ProductDSO6022,
		DisplayName: "DSO-6022BE", Generation: model.Gen6022,
		FirmwareRequired: true,
		Endpoints:        model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:         2, SampleSizeBits: 8,
	})
	db.add(primary, model.ModelRecord{
		VendorID: 0x04B4, ProductID: model.ProductDSO602A,
		DisplayName: "DSO-6022BL", Generation: model.Gen6022,
		FirmwareRequired: true, Unofficial: true,
		Endpoints: model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:  2, SampleSizeBits: 8,
	})

	secondary := gousb.ID(0x04B5)
	db.add(secondary, model.ModelRecord{
		VendorID: 0x04B5, ProductID: model.ProductDSO5200,
		DisplayName: "DSO-5200", Generation: model.Gen5200,
		Endpoints: model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:  2, SampleSizeBits: 10,
	})
	db.add(secondary, model.ModelRecord{
		VendorID: 0x04B5, ProductID: model.ProductDSO5200A,
		DisplayName: "DSO-5200A", Generation: model.Gen5200,
		Unofficial: true,
		Endpoints:  model.Endpoints{BulkOut: 0x02, BulkIn: 0x86},
		Channels:   2, SampleSizeBits: 10,
	})

	return db
}

func (db *Database) add(vendorID gousb.ID, rec model.ModelRecord) {
	products, ok := db.vendors[vendorID]
	if !ok {
		products = make(map[gousb.ID]model.ModelRecord)
		db.vendors[vendorID] = products
	}
	products[gousb.ID(rec.ProductID)] = rec
}

// Lookup resolves a VID/PID pair. It returns model.ErrUnsupported
// (carrying model.UnknownModelStatus) for an id pair not in the
// database at all, distinct from the firmware-required error returned
// once a 6022-family record is found (spec §4.7: "unknown product id"
// and "firmware not yet uploaded" are different failure modes).
func (db *Database) Lookup(vendorID, productID gousb.ID) (model.ModelRecord, error) {
	products, ok := db.vendors[vendorID]
	if !ok {
		return model.ModelRecord{}, model.NewError(model.ErrUnsupported,
			"unrecognized vendor id 0x%04X (status %d)", uint16(vendorID), model.UnknownModelStatus)
	}
	rec, ok := products[productID]
	if !ok {
		return model.ModelRecord{}, model.NewError(model.ErrUnsupported,
			"unrecognized product id 0x%04X for vendor 0x%04X (status %d)",
			uint16(productID), uint16(vendorID), model.UnknownModelStatus)
	}
	if rec.FirmwareRequired {
		return rec, model.NewError(model.ErrUnsupported,
			"%s requires firmware upload before it presents the DSO protocol", rec.DisplayName)
	}
	return rec, nil
}

// CatalogFor returns the protocol catalog for rec's generation, or nil
// if the generation never reaches a catalog (6022 family).
func CatalogFor(rec model.ModelRecord) *catalog.Catalog {
	return catalog.ForGeneration(rec.Generation)
}

// Resolved bundles everything a connect flow needs once a VID/PID pair
// has been looked up: the static record, its capability table and its
// protocol catalog.
type Resolved struct {
	Record  model.ModelRecord
	Spec    *model.DeviceSpecification
	Catalog *catalog.Catalog
}

// Resolve looks up vendorID/productID and assembles a Resolved bundle.
func (db *Database) Resolve(vendorID, productID gousb.ID) (Resolved, error) {
	rec, err := db.Lookup(vendorID, productID)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		Record:  rec,
		Spec:    SpecFor(rec),
		Catalog: CatalogFor(rec),
	}, nil
}
