// Command csysgen computes a local coordinate system for every hexahedral
// element of a mesh model and publishes one discrete orientation field per
// part.
//
// Usage:
//
//	csysgen [flags] model.lisp
//	csysgen -config run.yaml
//	csysgen -store fields.db -list
//	csysgen -store fields.db -show DiscField_Skin -format inp
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/csysgen/pkg/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("csysgen: ")

	var (
		configPath = flag.String("config", "", "YAML config file")
		modelPath  = flag.String("model", "", "mesh description file")
		parts      = flag.String("parts", "", "comma-separated part names (default: every part)")
		count      = flag.Int("count", 0, "declared number of parts; must match -parts")
		policy     = flag.String("policy", "halt", "failure policy: halt or continue")
		workers    = flag.Int("workers", 1, "frame builders per part")
		format     = flag.String("format", "json", "output format: json, yaml or inp")
		out        = flag.String("out", "", "output file (default stdout)")
		prefix     = flag.String("prefix", "", "field name prefix (default DiscField_)")
		desc       = flag.String("description", "", "field description")
		confirm    = flag.Bool("confirm", false, "ask before continuing with the next part")
		doReport   = flag.Bool("report", false, "print the orientation audit")
		storePath  = flag.String("store", "", "SQLite database that keeps published fields")
		histogram  = flag.String("histogram", "", "write the Ax angle histogram to this image")
		list       = flag.Bool("list", false, "list the runs and fields in -store and exit")
		show       = flag.String("show", "", "print a stored field from -store and exit")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	// Flags given explicitly override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model = *modelPath
		case "parts":
			cfg.Parts = config.ParseParts(*parts)
		case "count":
			cfg.PartCount = *count
		case "policy":
			cfg.Policy = *policy
		case "workers":
			cfg.Workers = *workers
		case "format":
			cfg.Output.Format = *format
		case "out":
			cfg.Output.Path = *out
		case "prefix":
			cfg.FieldPrefix = *prefix
		case "description":
			cfg.Description = *desc
		case "confirm":
			cfg.Confirm = *confirm
		case "report":
			cfg.Output.Report = *doReport
		case "store":
			cfg.Output.Store = *storePath
		case "histogram":
			cfg.Output.Histogram = *histogram
		}
	})
	if cfg.Model == "" && flag.NArg() > 0 {
		cfg.Model = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *list || *show != "" {
		app := NewApp(cfg)
		var err error
		if *list {
			err = app.ListStore(ctx, os.Stdout)
		} else {
			err = app.ShowField(ctx, *show, os.Stdout)
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "usage: csysgen [flags] model.lisp")
		flag.PrintDefaults()
		log.Fatal(err)
	}
	if err := NewApp(cfg).Run(ctx); err != nil {
		log.Fatal(err)
	}
}
