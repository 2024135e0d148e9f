package sample

func helper() {}
