package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"elisa/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: elisa-ctl [--socket path] record|say <text>|clear|quit")
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		args = []string{ipc.CmdRecord}
	}
	msg := ipc.ControlMessage{Cmd: args[0], Text: strings.Join(args[1:], " ")}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ipc.Send(ctx, *socket, msg); err != nil {
		fmt.Fprintln(os.Stderr, "elisa not running:", err)
		os.Exit(1)
	}
}
