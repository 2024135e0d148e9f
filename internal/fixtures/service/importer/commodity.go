package importer

type CommodityImporter struct{}

func (*CommodityImporter) Import() string { return "commodity" }
