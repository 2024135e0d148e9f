package service

// Importer is implemented by every importer in the importer package.
type Importer interface {
	Import() string
}
