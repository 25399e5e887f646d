package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"chief/internal/ipc"
)

func main() {
	socketPath := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		args = []string{"trigger"}
	}

	msg := ipc.ControlMessage{Cmd: args[0]}
	if len(args) > 1 {
		msg.Arg = strings.Join(args[1:], " ")
	}

	if err := ipc.Send(*socketPath, msg); err != nil {
		fmt.Println("chief-daemon not running:", err)
		os.Exit(1)
	}
}
