// Command eofdump validates EOF containers and prints their section
// layout.
//
// A single container can be passed with --hex; otherwise containers are
// read as hex strings, one per line, from the file argument or stdin.
// The exit status is nonzero if any input fails validation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/nervosnetwork/evmone/params"
)

var (
	hexFlag = &cli.StringFlag{
		Name:  "hex",
		Usage: "single hex-encoded container to dump",
	}
	revisionFlag = &cli.StringFlag{
		Name:  "revision",
		Usage: "chain revision to validate against",
		Value: params.Shanghai.String(),
	}
)

var app = &cli.App{
	Name:   "eofdump",
	Usage:  "validate EOF containers and print their section layout",
	Flags:  []cli.Flag{hexFlag, revisionFlag},
	Action: dump,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(ctx *cli.Context) error {
	rev, err := params.ParseRevision(ctx.String(revisionFlag.Name))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("revision", rev.String())

	if hex := ctx.String(hexFlag.Name); hex != "" {
		out, err := dumpContainer(rev, common.FromHex(hex))
		if err != nil {
			return fmt.Errorf("invalid container: %w", err)
		}
		fmt.Println("OK " + out)
		return nil
	}

	input := os.Stdin
	if ctx.Args().Len() > 0 {
		f, err := os.Open(ctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	failed, err := dumpAll(os.Stdout, input, rev)
	if err != nil {
		return err
	}
	if failed > 0 {
		logger.Warn("some containers failed validation", "failed", failed)
		return fmt.Errorf("%d invalid containers", failed)
	}
	return nil
}
