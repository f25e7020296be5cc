package xlsx

// LoaderOptions represents XLSX loader options
type LoaderOptions struct {
	// Sheet selects a worksheet by name. Empty means the active sheet.
	Sheet string `json:"sheet,omitempty"`
	// ResolveMerged copies the top-left value of every merged range into all of its cells
	ResolveMerged bool `json:"resolveMerged"`
}

// DefaultOptions returns default XLSX loader options
func DefaultOptions() LoaderOptions {
	return LoaderOptions{
		ResolveMerged: true,
	}
}
