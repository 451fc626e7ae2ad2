package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"tara/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tara-ctl [flags] trigger|clear\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	cmd := ipc.CmdTrigger
	if cli.NArg() > 0 {
		cmd = cli.Arg(0)
	}

	reply, err := ipc.Send(context.Background(), *socket, cmd)
	if err != nil {
		fmt.Println("tara-daemon not running:", err)
		os.Exit(1)
	}

	fmt.Println(reply.Message)
	if !reply.OK {
		os.Exit(1)
	}
}
