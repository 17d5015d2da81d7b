package main

import (
	"import.name/pan"
)

var z = new(pan.Zone)

func check(err error) {
	z.Check(err)
}

func must[T any](x T, err error) T {
	z.Check(err)
	return x
}
