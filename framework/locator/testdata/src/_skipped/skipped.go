package skipped

type Skipped struct{}
