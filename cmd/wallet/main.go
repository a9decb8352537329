package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "wallet"
	app.Usage = "Drive the configured smart account through its wallet provider"
	app.Flags = []cli.Flag{
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "overall deadline for the command",
			Value: defaultTimeout,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "accounts",
			Usage:  "Print the bound smart account address",
			Action: accounts,
		},
		{
			Name:   "send",
			Usage:  "Send a single call as a user operation and wait for inclusion",
			Action: send,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "to", Usage: "target contract address", Required: true},
				&cli.StringFlag{Name: "data", Usage: "0x-prefixed call data", Value: "0x"},
				&cli.StringFlag{Name: "value", Usage: "wei amount, decimal or 0x hex", Value: "0"},
			},
		},
		{
			Name:   "sign",
			Usage:  "Sign a personal message (0x hex is signed as bytes)",
			Action: sign,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "message", Required: true},
			},
		},
		{
			Name:   "sign-typed-data",
			Usage:  "Sign an EIP-712 JSON document",
			Action: signTypedData,
			Flags: []cli.Flag{
				&cli.PathFlag{Name: "file", Usage: "path to the typed data JSON", Required: true},
			},
		},
		{
			Name:   "request",
			Usage:  "Send an arbitrary EIP-1193 request through the provider",
			Action: request,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "method", Required: true},
				&cli.StringFlag{Name: "params", Usage: "JSON array of params", Value: "[]"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
