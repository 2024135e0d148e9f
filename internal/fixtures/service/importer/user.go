package importer

type UserImporter struct{}

func (*UserImporter) Import() string { return "user" }
