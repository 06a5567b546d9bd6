// Command huffmin is a streaming, block-parallel Huffman
// compressor/decompressor. It reads an arbitrary byte stream and
// writes a framed sequence of self-describing compressed blocks, or
// reverses the process, to reproduce the original bytes.
package main

import (
	"fmt"
	"os"

	glog "github.com/labstack/gommon/log"

	"github.com/d4s/chw/internal/pipeline"
)

const usage = `Stream compressor/decompressor
Usage: %s [-dxc] [infile] [outfile]
-c    -- compress (default)
-d|-x -- decompress
`

func help(name string) {
	fmt.Fprintf(os.Stderr, usage, name)
}

type mode int

const (
	modeCompress mode = iota
	modeDecompress
)

// parseArgs mirrors the original source's getopt-based parse_args:
// mode flags among -c/-d/-x (each a separate argument; the last one
// wins), followed by up to two positional filenames (input, output). Unknown options or extra positional
// arguments are a usage error.
func parseArgs(args []string) (m mode, infile, outfile string, err error) {
	m = modeCompress
	i := 0
	for ; i < len(args); i++ {
		a := args[i]
		if len(a) == 0 || a[0] != '-' || a == "-" {
			break
		}
		switch a {
		case "-c":
			m = modeCompress
		case "-d", "-x":
			m = modeDecompress
		default:
			return 0, "", "", fmt.Errorf("unknown option %q", a)
		}
	}

	rest := args[i:]
	switch len(rest) {
	case 0:
	case 1:
		infile = rest[0]
	case 2:
		infile = rest[0]
		outfile = rest[1]
	default:
		return 0, "", "", fmt.Errorf("unexpected extra arguments: %v", rest[2:])
	}
	return m, infile, outfile, nil
}

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	m, infile, outfile, err := parseArgs(argv[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		help(argv[0])
		return 1
	}

	in := os.Stdin
	if infile != "" {
		f, err := os.Open(infile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open input file: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if outfile != "" {
		f, err := os.Create(outfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	logger := glog.New("huffmin")
	logger.SetLevel(glog.INFO)

	opts := pipeline.Options{}

	switch m {
	case modeCompress:
		logger.Info("starting compressor")
		err = pipeline.Compress(in, out, opts)
	case modeDecompress:
		logger.Info("starting decompressor")
		err = pipeline.Decompress(in, out, opts)
	}
	if err != nil {
		logger.Errorf("pipeline failed: %v", err)
		return 1
	}
	return 0
}
