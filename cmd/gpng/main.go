// Command gpng encodes, decodes, and inspects PNG images from the
// command line using the self-contained codec in this module.
//
// Usage:
//
//	gpng enc [options] <input>       GIF/JPEG/PNG → PNG (use "-" for stdin)
//	gpng dec [options] <input.png>   PNG → GIF/JPEG/PNG (use "-" for stdin, -o - for stdout)
//	gpng info <input.png>            Display PNG header information
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepteams/png"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gpng: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gpng: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gpng enc [options] <input>       encode an image as PNG
  gpng dec [options] <input.png>   decode a PNG to another format
  gpng info <input.png>            show PNG header information

Run "gpng <command> -h" for the options of a command.
`)
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ExitOnError)
	out := fs.String("o", "", "output file (default: input with .png extension, - for stdout)")
	noAuto := fs.Bool("noauto", false, "keep the input color mode instead of choosing the smallest")
	interlace := fs.Bool("interlace", false, "write an Adam7 interlaced PNG")
	strategy := fs.String("filter", "minsum", "filter strategy: zero, minsum or entropy")
	window := fs.Int("window", 2048, "LZ77 window size (power of two, max 32768)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("enc: expected exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readInput(input)
	if err != nil {
		return err
	}
	img, _, err := decodeAny(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", input, err)
	}

	o := png.DefaultEncoderOptions()
	o.AutoConvert = !*noAuto
	o.Interlace = *interlace
	o.Compression.WindowSize = *window
	switch *strategy {
	case "zero":
		o.FilterStrategy = png.FilterZero
	case "minsum":
		o.FilterStrategy = png.FilterMinsum
	case "entropy":
		o.FilterStrategy = png.FilterEntropy
	default:
		return fmt.Errorf("enc: unknown filter strategy %q", *strategy)
	}

	outPath := *out
	if outPath == "" {
		outPath = replaceExt(input, ".png")
	}

	f, err := outputWriter(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img, o)
}

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ExitOnError)
	out := fs.String("o", "", "output file (extension selects the format, - for PNG on stdout)")
	quality := fs.Int("q", 90, "JPEG quality (1-100)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("dec: expected exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readInput(input)
	if err != nil {
		return err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", input, err)
	}

	outPath := *out
	if outPath == "" {
		outPath = replaceExt(input, ".jpg")
	}

	f, err := outputWriter(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: *quality})
	case ".gif":
		return gif.Encode(f, img, nil)
	default:
		return png.Encode(f, img, nil)
	}
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("info: expected exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readInput(input)
	if err != nil {
		return err
	}
	info, err := png.Inspect(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d x %d, %v, %d-bit", input, info.Width, info.Height,
		info.Color.ColorType, info.Color.BitDepth)
	if info.Interlace == 1 {
		fmt.Print(", Adam7 interlaced")
	}
	fmt.Println()
	return nil
}

// decodeAny decodes PNG via this module and other formats via the
// standard library.
func decodeAny(data []byte) (image.Image, string, error) {
	if len(data) > 8 && data[0] == 0x89 && string(data[1:4]) == "PNG" {
		img, err := png.Decode(bytes.NewReader(data))
		return img, "png", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	return img, format, err
}

// replaceExt swaps a path's extension, writing next to the input.
func replaceExt(path, ext string) string {
	if path == "-" {
		return "-"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// outputWriter opens the output target; "-" means stdout.
func outputWriter(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}
