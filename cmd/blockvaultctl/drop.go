package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/flashvolt/blockvault/internal/backend"
)

func runDrop(args []string, stdout, stderr *os.File) error {
	fs := flag.NewFlagSet("drop", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataRoot := fs.String("data-root", "", "partition data root (required)")
	partition := fs.String("partition", "", "partition name (required)")
	blockSize := fs.Int("block-size", 0, "configured block size (required)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataRoot == "" || *partition == "" || *blockSize == 0 {
		return fmt.Errorf("--data-root, --partition and --block-size are all required")
	}

	if !*yes {
		fmt.Fprintf(stdout, "this permanently removes all data in partition %q under %q. continue? [y/N] ", *partition, *dataRoot)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "y" {
			fmt.Fprintln(stdout, "aborted")
			return nil
		}
	}

	b, err := backend.Start(*partition, backend.Config{DataRoot: *dataRoot, BlockSize: *blockSize})
	if err != nil {
		return err
	}

	if err := b.Drop(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "dropped partition %q\n", *partition)
	return nil
}
