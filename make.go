//go:build generate
// +build generate

package main

import (
	. "import.name/make"
)

func main() { Main(targets, "make.go", "go.mod") }

func targets() (targets Tasks) {
	var (
		GO      = Getvar("GO", "go")
		BASE    = Getvar("BASE", "")
		PROFILE = Getvar("PROFILE", "nrf52840-s140v6")
		ELF     = Getvar("ELF", "target/thumbv7em-none-eabihf/release/app")
	)

	profile := "device.profile=" + PROFILE
	base := "build.base=" + BASE

	bin := If(Outdated("app.bin", Globber(ELF)),
		Command(GO, "run", "./cmd/nrfpack", "-o", profile, "-o", base, "bin", ELF),
	)
	uf2 := Group(bin, If(Outdated("app.uf2", Globber("app.bin")),
		Command(GO, "run", "./cmd/nrfpack", "-o", profile, "-o", base, "uf2", "app.bin"),
	))

	targets.Add(TargetDefault("uf2", uf2))
	targets.Add(Target("bin", bin))
	targets.Add(Target("disasm",
		Command(GO, "run", "./cmd/nrfpack", "-o", profile, "disasm", ELF),
	))
	targets.Add(Target("check",
		Command(GO, "run", "./cmd/nrfpack", "-o", profile, "check"),
		Command(GO, "vet", "./..."),
		Command(GO, "test", "./..."),
	))
	targets.Add(Target("clean", Group(Removal("app.bin"), Removal("app.hex"), Removal("app.uf2"))))
	return
}
