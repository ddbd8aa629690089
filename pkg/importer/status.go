package importer

// Status summarises whether an import produced anything usable.
type Status string

const (
	// StatusSuccess means something was extracted and nothing was flagged.
	StatusSuccess Status = "success"
	// StatusPartial means something was extracted but warnings were raised.
	StatusPartial Status = "partial"
	// StatusFailed means nothing was extracted.
	StatusFailed Status = "failed"
)

// DeriveStatus computes the status of r from its lists and warnings alone.
func DeriveStatus(r ImportResult) Status {
	switch {
	case !r.HasExtraction():
		return StatusFailed
	case len(r.Warnings) > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}
