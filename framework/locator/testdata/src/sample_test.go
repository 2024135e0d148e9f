package sample

type Ignored struct{}
