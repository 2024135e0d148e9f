package importer

type AttributeImporter struct{}

func (*AttributeImporter) Import() string { return "attribute" }
