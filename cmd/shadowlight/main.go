// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	nl "github.com/mlnoga/shadowlight/internal"
	"github.com/mlnoga/shadowlight/internal/harness"
	"github.com/mlnoga/shadowlight/internal/ops"
	"github.com/mlnoga/shadowlight/internal/ops/tonal"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/rest"
	"github.com/mlnoga/shadowlight/internal/shadows"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var out = flag.String("out", "%auto", "save output to `file`. `%auto` appends _sh.jpg to the input file name without suffix")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var outDir = flag.String("outDir", ".", "directory for the result files of the test and optimal commands")
var quality = flag.Int("quality", raster.DefaultQuality, "JPEG output quality, 1..100")
var threads = flag.Int("threads", 0, "maximum number of row bands processed in parallel, 0 for all CPUs")

var shadowAmount = flag.Float64("shadows", shadows.DefaultShadowAmount, "amount of shadow lifting in [0,1]")
var highlightAmount = flag.Float64("highlights", shadows.DefaultHighlightAmount, "amount of highlight compression in [0,1]")
var tonalWidth = flag.Float64("width", shadows.DefaultTonalWidth, "tonal width of shadows and highlights in [0,1]")
var blurRadius = flag.Float64("radius", shadows.DefaultBlurRadius, "blur radius of the tonal masks in pixels, [0,50]")

var addr = flag.String("addr", ":8080", "listen address for the serve command")
var chroot = flag.String("chroot", "", "serve: change filesystem root to `dir` before serving (requires root)")
var setuid = flag.Int("setuid", -1, "serve: change user id to this value before serving, -1 to keep")

func main() {
	logWriter := nl.LogWriter()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Shadowlight Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (apply|test|optimal|pipeline|serve|ops|legal|version) (args)

Commands:
  apply    Lift shadows and compress highlights of one image, e.g. apply in.jpg
  test     Run the comparison harness with four fixed settings on one image
  optimal  Run the optimized setting on one image
  pipeline Run a JSON operator pipeline, e.g. pipeline steps.json
  serve    Serve the REST API
  ops      List available pipeline operators
  legal    Show license and attribution information
  version  Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// Resolve automatic output file name from the input
	if *out == "%auto" {
		if args[0] == "apply" && len(args) > 1 {
			*out = strings.TrimSuffix(args[1], filepath.Ext(args[1])) + "_sh.jpg"
		} else {
			*out = ""
		}
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s': %s\n", *log, err.Error())
		}
	}
	defer nl.LogClose()

	raster.SetMaxThreads(*threads)

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatalf("Could not create CPU profile: %s\n", err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatalf("Could not start CPU profile: %s\n", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	switch args[0] {
	case "apply":
		err = cmdApply(args[1:], logWriter)

	case "test":
		err = withImage(args[1:], func(img *raster.Image8) error {
			_, err := harness.RunComprehensive(img, *outDir, logWriter)
			return err
		})

	case "optimal":
		err = withImage(args[1:], func(img *raster.Image8) error {
			_, err := harness.RunOptimized(img, *outDir, logWriter)
			return err
		})

	case "pipeline":
		err = cmdPipeline(args[1:], logWriter)

	case "serve":
		if err = rest.MakeSandbox(*chroot, *setuid, logWriter); err == nil {
			err = rest.Serve(*addr, logWriter)
		}

	case "ops":
		for _, t := range ops.RegisteredTypes() {
			fmt.Fprintln(logWriter, t)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
		fmt.Fprintf(logWriter, "System: %v\n", nl.GetSystemInfo())

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if err != nil {
		nl.LogFatalf("Error: %s\n", err.Error())
	}
	fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start).Round(time.Millisecond))
}

// Builds the filter configuration from the command line flags
func configFromFlags() shadows.Config {
	return shadows.Config{
		ShadowAmount:    float32(*shadowAmount),
		HighlightAmount: float32(*highlightAmount),
		TonalWidth:      float32(*tonalWidth),
		BlurRadius:      float32(*blurRadius),
	}.Clamped()
}

func cmdApply(args []string, logWriter io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("apply needs exactly one input file, got %d", len(args))
	}
	seq := ops.NewOpSequence(
		ops.NewOpLoad(args[0]),
		tonal.NewOpShadowHighlight(configFromFlags()),
		ops.NewOpSave(*out, *quality),
	)
	return runSequence(seq, logWriter)
}

func cmdPipeline(args []string, logWriter io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("pipeline needs exactly one JSON file, got %d", len(args))
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	seq, err := ops.LoadSequence(f)
	if err != nil {
		return fmt.Errorf("reading pipeline %s: %w", args[0], err)
	}
	return runSequence(seq, logWriter)
}

func runSequence(seq *ops.OpSequence, logWriter io.Writer) error {
	m, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "Running with these settings:\n%s\n", string(m))
	_, err = seq.Apply(nil, ops.NewContext(logWriter))
	return err
}

func withImage(args []string, fn func(img *raster.Image8) error) error {
	if len(args) != 1 {
		return fmt.Errorf("need exactly one input file, got %d", len(args))
	}
	img, err := raster.ReadFile(args[0])
	if err != nil {
		return err
	}
	return fn(img)
}
