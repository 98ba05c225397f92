package domain

type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Metric struct {
	MetricID   string     `json:"metric_id"`
	Label      string     `json:"label"`
	Optimality Optimality `json:"optimality,omitempty"`
}

type Cell struct {
	Value      Value    `json:"value"`
	Unit       string   `json:"unit,omitempty"`
	Confidence float64  `json:"confidence"`
	Flags      []string `json:"flags,omitempty"`
	DocumentID string   `json:"document_id"`
}

// ComparisonDataset is the vendor-by-metric matrix built once per job.
// It is rebuilt wholesale on every aggregation run and always carries a
// cell entry (possibly nil) for every (metric, vendor) pair.
type ComparisonDataset struct {
	Vendors            []Vendor                    `json:"vendors"`
	Metrics            []Metric                    `json:"metrics"`
	Matrix             map[string]map[string]*Cell `json:"matrix"`
	Deltas             map[string]*float64         `json:"deltas"`
	BestVendorByMetric map[string]string           `json:"best_vendor_by_metric"`
	MissingFlags       map[string]map[string]bool  `json:"missing_flags"`
	SynonymMapVersion  int                         `json:"synonym_map_version"`
}

// EmptyComparisonDataset returns a shaped zero dataset so callers polling
// an unbuilt job never see null.
func EmptyComparisonDataset() *ComparisonDataset {
	return &ComparisonDataset{
		Vendors:            []Vendor{},
		Metrics:            []Metric{},
		Matrix:             map[string]map[string]*Cell{},
		Deltas:             map[string]*float64{},
		BestVendorByMetric: map[string]string{},
		MissingFlags:       map[string]map[string]bool{},
	}
}

// ExportFile is a handle to an exported comparison artifact.
type ExportFile struct {
	StorageKey  string `json:"storage_key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}
