package main

import (
	"github.com/BioHazard786/rtcshare/cmd"
	"github.com/BioHazard786/rtcshare/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
