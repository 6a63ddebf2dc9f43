package model

// ProductID is a USB product id for a recognized Hantek-family DSO.
type ProductID uint16

// Recognized product identifiers (spec §6). Vendor id is 0x04B4 for
// most of the family and 0x04B5 for a couple of the 5200 variants; the
// exact vendor id lives on the ModelRecord, not derived from the
// product id.
const (
	ProductDSO2090  ProductID = 0x2090
	ProductDSO2150  ProductID = 0x2150
	ProductDSO2250  ProductID = 0x2250
	ProductDSO5200  ProductID = 0x5200
	ProductDSO5200A ProductID = 0x520A
	ProductDSO6022  ProductID = 0x6022
	ProductDSO602A  ProductID = 0x602A
)

// Generation groups product ids that share one protocol-catalog
// family. The spec's "four device generations" map onto these.
type Generation int

const (
	GenUnknown Generation = iota
	Gen2090_2150
	Gen2250
	Gen5200
	Gen6022 // firmware-upload family; never reaches a ProtocolCatalog in this module
)

// TriggerMessageKind disambiguates the shared bulk opcode 0x0E, which
// is SetSamplerate on the 2250 and SetTrigger on the 5200. Spec §9
// calls out a source bug where setTriggerSlope switches on product id
// while comparing against BULK_* enum values. Each DeviceSpecification
// records its kind here; the resolver and internal/device branch on the
// catalog's Generation rather than on product id, and no code in this
// module branches on TriggerMessageKind itself.
type TriggerMessageKind int

const (
	TriggerKindShared0E TriggerMessageKind = iota // 2090/2150: folded into SetTriggerAndSamplerate
	TriggerKind2250                               // 0x0C SetTrigger-2250
	TriggerKind5200                               // 0x0E SetTrigger-5200
)

// Endpoints carries the bulk IN/OUT endpoint addresses for a model.
type Endpoints struct {
	BulkIn  uint8
	BulkOut uint8
}

// ModelRecord is the per-product-id record from spec §3: vendor id,
// product id, display name, firmware-required flag, endpoints, and a
// pointer (by Generation, resolved through the registry) to the
// protocol catalog.
type ModelRecord struct {
	VendorID         uint16
	ProductID        ProductID
	DisplayName      string
	Generation       Generation
	FirmwareRequired bool
	Unofficial       bool // DSO-2150 and DSO-5200A are recognized but "unofficial"
	Endpoints        Endpoints
	Channels         int
	SampleSizeBits   int
}
