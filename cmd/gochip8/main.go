// Package main implements the gochip8 virtual machine executable.
package main

import (
	"flag"
	"fmt"
	"os"

	retroapp "github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/app"
	"gochip8/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to the program image (or pass it as the first argument)")
		configFile  = flag.String("config", "", "Path to configuration file")
		backend     = flag.String("backend", "", "Display backend: ebitengine, terminal or headless")
		dump        = flag.String("dump", "", "Headless only: write the final frame as PBM to this file")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		trace       = flag.Bool("trace", false, "Log every executed instruction")
		quiet       = flag.Bool("quiet", false, "Only log errors")
		nogui       = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Println(version.GetDetailedVersion())
		os.Exit(0)
	}

	romPath := *romFile
	if romPath == "" && flag.NArg() > 0 {
		romPath = flag.Arg(0)
	}
	if romPath == "" {
		printUsage()
		os.Exit(1)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplication(app.Options{
		ConfigPath: configPath,
		Backend:    *backend,
		FrameDump:  *dump,
		Debug:      *debug,
		Trace:      *trace,
		Quiet:      *quiet,
		NoGUI:      *nogui,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}
	logger := application.Logger()
	printBanner(logger)

	if err := run(application, romPath); err != nil {
		logger.Error("Execution failed", log.Err(err))
		os.Exit(1)
	}
}

func run(application *app.Application, romPath string) error {
	defer func() {
		if err := application.Cleanup(); err != nil {
			application.Logger().Error("Application cleanup error", log.Err(err))
		}
	}()

	if err := application.LoadROM(romPath); err != nil {
		return err
	}
	return application.Run(retroapp.Context())
}

func printBanner(logger *log.Logger) {
	logger.Info("gochip8 - CHIP-8 virtual machine", log.String("version", version.GetVersion()))
}

func printUsage() {
	fmt.Println("gochip8 - CHIP-8 virtual machine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gochip8 [options] <program>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Keypad (default layout):")
	fmt.Println("  1 2 3 4        1 2 3 C")
	fmt.Println("  Q W E R   ->   4 5 6 D")
	fmt.Println("  A S D F        7 8 9 E")
	fmt.Println("  Z X C V        A 0 B F")
	fmt.Println()
	fmt.Println("Escape closes the window, Ctrl-C quits the terminal backend.")
}
