package testdata

type Fixture struct{}
