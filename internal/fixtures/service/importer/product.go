package importer

type ProductImporter struct{}

func (*ProductImporter) Import() string { return "product" }
