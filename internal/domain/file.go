package domain

// StoredFile describes one document held by the storage collaborator.
type StoredFile struct {
	// Name is the stored (unique) file name.
	Name string `json:"name"`
	// DisplayName is the original upload name without its extension,
	// the identifier chunks carry in the index.
	DisplayName string `json:"display_name"`
	// Indexed reports whether the document's chunks are in the index.
	Indexed bool `json:"indexed"`
	// Size is the stored size in bytes.
	Size int64 `json:"size"`
	// UploadedAt is the RFC 3339 upload time.
	UploadedAt string `json:"uploaded_at"`
}
