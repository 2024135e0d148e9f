package service

import "iter"

type ImportManager struct {
	ImporterArray    []Importer
	ImporterIterable iter.Seq2[Importer, error]
}

func (m *ImportManager) GetImporterArray() []Importer { return m.ImporterArray }

func (m *ImportManager) GetImporterIterable() iter.Seq2[Importer, error] {
	return m.ImporterIterable
}
