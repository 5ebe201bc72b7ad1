package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	watermark "github.com/gcslaoli/gemini-watermark-unblend"
	"github.com/gcslaoli/gemini-watermark-unblend/internal/config"
	"github.com/gcslaoli/gemini-watermark-unblend/internal/logger"
)

// go run ./cmd/gwatermark -in image.png -out image_unwatermarked.png
// go run ./cmd/gwatermark -in photo.jpg -quality 90
// go run ./cmd/gwatermark -inbase64 "data:image/png;base64,..." -outbase64

func main() {
	input := flag.String("in", "", "Path to the watermarked image (png/jpg/webp/gif/bmp/tiff)")
	inputBase64 := flag.String("inbase64", "", "Base64 image input (optionally data URL)")
	output := flag.String("out", "", "Output path (defaults to <name>_unwatermarked.<ext>)")
	outputBase64 := flag.Bool("outbase64", false, "Write cleaned PNG as base64 to stdout instead of file")
	configPath := flag.String("config", "", "Optional YAML config file")
	assetsDir := flag.String("assets", "", "Directory containing Assets/bg_<size>.png (overrides config)")
	workers := flag.Int("workers", 0, "Goroutines used for unblending (overrides config)")
	quality := flag.Int("quality", 0, "JPEG output quality (overrides config)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	if *input == "" && *inputBase64 == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *assetsDir != "" {
		cfg.Assets.Dir = *assetsDir
	}
	if *workers > 0 {
		cfg.Engine.Workers = *workers
	}
	if *quality > 0 {
		cfg.Output.JPEGQuality = *quality
	}
	mode := cfg.Log.Mode
	if !*debug && mode == "debug" {
		// Keep the console quiet unless asked.
		mode = "release"
	}

	log, err := logger.New(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	engine := watermark.NewEngine(cfg.EngineOptions(log)...)

	if *inputBase64 != "" {
		runBase64(log, engine, *inputBase64, *output, *outputBase64)
		return
	}
	runFile(log, engine, *input, *output, *outputBase64)
}

func runBase64(log *zap.Logger, engine *watermark.Engine, in, out string, toStdout bool) {
	encoded, res, err := engine.RemoveWatermarkBase64(in)
	if err != nil {
		log.Fatal("remove watermark", zap.Error(err))
	}
	report(res.Info, res.Applied)

	if toStdout || out == "" {
		fmt.Println(encoded)
		return
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Fatal("decode result", zap.Error(err))
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		log.Fatal("write output", zap.String("path", out), zap.Error(err))
	}
	fmt.Printf("Processed base64 -> %s\n", out)
}

func runFile(log *zap.Logger, engine *watermark.Engine, in, out string, toStdout bool) {
	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatal("read input", zap.String("path", in), zap.Error(err))
	}

	if toStdout {
		img, _, err := watermark.DecodeImageBytes(data)
		if err != nil {
			log.Fatal("decode input", zap.Error(err))
		}
		res, err := engine.Remove(img)
		if err != nil {
			log.Fatal("remove watermark", zap.Error(err))
		}
		report(res.Info, res.Applied)
		encoded, err := watermark.EncodePNGToBase64(res.Image)
		if err != nil {
			log.Fatal("encode base64 output", zap.Error(err))
		}
		fmt.Println(encoded)
		return
	}

	res, err := engine.RemoveWatermarkBytes(data)
	if err != nil {
		log.Fatal("remove watermark", zap.String("path", in), zap.Error(err))
	}
	report(res.Info, res.Applied)

	outPath := out
	if outPath == "" {
		outPath = defaultOutputPath(in, res.Format)
	}
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		log.Fatal("write output", zap.String("path", outPath), zap.Error(err))
	}

	fmt.Printf("Processed %s (%s) -> %s (%s) [watermark %dx%d at %v]\n",
		in, res.InputFormat, outPath, res.Format, res.Info.Size, res.Info.Size, res.Info.Position)
}

func report(info watermark.Info, applied bool) {
	if !applied {
		fmt.Fprintf(os.Stderr, "Watermark footprint %v does not fit the image; output is unchanged.\n", info.Position)
	}
}

// defaultOutputPath places <name>_unwatermarked.<ext> next to the input.
func defaultOutputPath(in, format string) string {
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(filepath.Dir(in), base+"_unwatermarked"+ext)
}
