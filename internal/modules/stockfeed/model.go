package stockfeed

// Schema identifies the shape of the supplier's stock report.
// It decides the join key used by the reconciler, never the row content.
type Schema string

const (
	// SchemaComposite rows are keyed by (article, size, colour code).
	SchemaComposite Schema = "composite"
	// SchemaEAN rows are keyed by EAN barcode.
	SchemaEAN Schema = "ean"
)

// Row is one line of the live stock report. Units is kept as delivered
// ("", "5", "10+") and normalized by NormalizeQuantity during reconciliation.
type Row struct {
	JoinKey   string `json:"join_key,omitempty"`
	Size      string `json:"size,omitempty"`
	ColorCode string `json:"color_code,omitempty"`
	EAN       string `json:"ean,omitempty"`
	Units     string `json:"units"`
}

// Feed is a freshly downloaded stock report. It is never cached between runs.
type Feed struct {
	Schema Schema `json:"schema"`
	Rows   []Row  `json:"rows"`
}
