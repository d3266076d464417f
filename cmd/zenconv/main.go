package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/binzume/zenconv/config"
	"github.com/binzume/zenconv/converter"
	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/scene"
	"github.com/binzume/zenconv/waynet"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] world.zen [output.glb]\n       %s [flags] -model NAME [output.glb]\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "config file (yaml)")
	gameDir := flag.String("game", "", "game directory")
	skipPortals := flag.Bool("skipportals", true, "skip portal polygons")
	batch := flag.Int("batch", 100, "meshes and objects per batch")
	texFormat := flag.String("texfmt", "png", "texture format: png, jpeg or webp")
	texLimit := flag.Int("texlimit", 0, "texture resolution limit (0: unlimited)")
	unlit := flag.Bool("unlit", false, "unlit all materials")
	novobs := flag.Bool("novobs", false, "skip world objects")
	scale := flag.Float64("scale", 1, "additional output scale")
	model := flag.String("model", "", "convert a single model instead of a world")
	logLevel := flag.String("loglevel", "info", "log level")
	logFile := flag.String("logfile", "", "log file")
	dump := flag.Bool("dump", false, "print an import summary")
	flag.Parse()

	cfg, err := config.Load(*confFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// flags given on the command line override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "game":
			cfg.Data.GameDir = *gameDir
		case "skipportals":
			cfg.World.SkipPortals = *skipPortals
		case "batch":
			cfg.Import.MeshesPerBatch = *batch
			cfg.Import.VobsPerBatch = *batch
		case "texfmt":
			cfg.Output.TextureFormat = *texFormat
		case "texlimit":
			cfg.Output.TextureResolutionLimit = *texLimit
		case "unlit":
			cfg.Output.Unlit = *unlit
		case "novobs":
			cfg.World.ImportVobs = !*novobs
		case "loglevel":
			cfg.Logging.Level = *logLevel
		case "logfile":
			cfg.Logging.LogFile = *logFile
		}
	})

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	args := flag.Args()
	if *model == "" {
		if len(args) > 0 {
			cfg.World.Name = args[0]
			args = args[1:]
		}
		if cfg.World.Name == "" {
			flag.Usage()
			return 2
		}
	}
	output := cfg.Output.Path
	if len(args) > 0 {
		output = args[0]
	}
	if output == "" {
		name := cfg.World.Name
		if *model != "" {
			name = *model
		}
		output = defaultOutputFile(name)
	}

	s, err := converter.OpenSession(cfg)
	if err != nil {
		logger.Error("cannot open game data", zap.Error(err))
		return 1
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var root *scene.Node
	var graph *waynet.Graph
	if *model != "" {
		root, err = s.ImportModel(*model)
	} else {
		root, graph, err = s.ImportWorld(ctx, cfg.World.Name)
	}
	if err != nil {
		logger.Error("import failed", zap.Error(err))
		return 1
	}

	if *dump {
		dumpSummary(os.Stdout, root, graph, s.Resolver.Stats())
	}

	logger.Info("writing", zap.String("out", output))
	if err := saveScene(root, s, output, float32(*scale)); err != nil {
		logger.Error("export failed", zap.Error(err))
		return 1
	}
	return 0
}
