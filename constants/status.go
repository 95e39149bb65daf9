package constants

// RecordStatus is the canonical status for invoice records in the
// structured store.
type RecordStatus string

// Stable values (the store holds these exact strings).
const (
	StatusProcessing RecordStatus = "procesando"
	StatusCompleted  RecordStatus = "completado"
	StatusError      RecordStatus = "error"
)

// Sentinel field values used by the extractor and the sync run. They are
// data, not labels: matching and repair decisions key off them, so they
// must stay byte-stable.
const (
	// ProviderNotIdentified marks records whose provider could not be
	// extracted. The matcher never matches on it.
	ProviderNotIdentified = "Proveedor no identificado"

	// RecoveredProvider marks records created by the orphan pass.
	RecoveredProvider = "Archivo recuperado"

	// RecoveredDescription is the description given to orphan records.
	RecoveredDescription = "Factura sincronizada automáticamente desde el almacenamiento"
)
