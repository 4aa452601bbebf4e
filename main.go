package main

import (
	"github.com/NikolaiRadke/Extension-Manager/cmd"
)

func main() {
	cmd.Execute()
}
