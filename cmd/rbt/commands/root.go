// ABOUTME: Root command and shared options for the rbt tool
// ABOUTME: Loads config, opens the cache and resource store, and decodes inputs
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/internal/app"
	"github.com/scummtools/robot-go/internal/cache"
	"github.com/scummtools/robot-go/internal/config"
	"github.com/scummtools/robot-go/internal/storage"
	"github.com/scummtools/robot-go/pkg/robot"
	"github.com/scummtools/robot-go/pkg/session"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath  string
	stride      int
	cacheDir    string
	noCache     bool
	resourceDir string
	verbose     bool
	jsonOutput  bool

	cfg   *config.Config
	cache *cache.Cache
}

// Execute runs the rbt command tree
func Execute() error {
	opts := &rootOptions{}
	defer opts.close()
	return newRootCmd(opts).Execute()
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "rbt",
		Short: "Sierra Robot (.RBT) decoding tools",
		Long: `rbt inspects Sierra Robot video files and reconstructs their audio.

Inputs are local paths, s3://bucket/key URIs, or numeric resource ids
resolved against --resource-dir or the configured store.

Examples:
  rbt info 1002.rbt
  rbt extract 1002.rbt -o 1002.wav
  rbt timeline 1002.rbt -o 1002.csv
  rbt schedule 1002.rbt --pattern 'frames/%05d.png' -o concat.txt
  rbt compare 1002.rbt reference.wav
  rbt serve 1002.rbt --port 8927`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath(), "YAML config file")
	pf.IntVar(&opts.stride, "stride", 0, "interpolation stride, 2 or 4 (default from config)")
	pf.StringVar(&opts.cacheDir, "cache-dir", "", "decode cache directory (enables the cache)")
	pf.BoolVar(&opts.noCache, "no-cache", false, "disable the decode cache")
	pf.StringVar(&opts.resourceDir, "resource-dir", "", "directory holding <id>.rbt resources")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log decoding details to stderr")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newInfoCmd(opts),
		newExtractCmd(opts),
		newTimelineCmd(opts),
		newScheduleCmd(opts),
		newCompareCmd(opts),
		newServeCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.verbose {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if o.stride != 0 {
		cfg.Playback.Stride = o.stride
	}
	if o.cacheDir != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = o.cacheDir
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if o.resourceDir != "" {
		cfg.Storage.Dir = o.resourceDir
		cfg.Storage.Bucket = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	o.cfg = cfg

	if cfg.Cache.Enabled {
		c, err := cache.Open(cache.Options{Dir: cfg.Cache.Dir})
		if err != nil {
			return err
		}
		o.cache = c
	}
	return nil
}

func (o *rootOptions) close() error {
	if o.cache == nil {
		return nil
	}
	err := o.cache.Close()
	o.cache = nil
	return err
}

// sessionOptions returns the decode options for the configured stride
func (o *rootOptions) sessionOptions() session.Options {
	opts := session.DefaultOptions()
	opts.Stride = o.cfg.StrideValue()
	return opts
}

// input is a loaded Robot file
type input struct {
	name string
	data []byte
}

func (o *rootOptions) load(ctx context.Context, ref string) (*input, error) {
	var src *storage.ResourceSource
	store, ok, err := o.cfg.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to open resource store: %w", err)
	}
	if ok {
		src = storage.NewResourceSource(store, "")
	}

	data, name, err := app.LoadInput(ctx, ref, src, o.cfg.S3())
	if err != nil {
		return nil, err
	}
	return &input{name: name, data: data}, nil
}

func (o *rootOptions) decode(ctx context.Context, in *input, opts session.Options) (*session.Result, error) {
	res, hit, err := cache.Decode(ctx, o.cache, in.data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", in.name, err)
	}
	log.Printf("Decoded %s (cached: %v)", in.name, hit)
	return res, nil
}

func (in *input) container() (*robot.Container, error) {
	ct, err := robot.Open(in.data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", in.name, err)
	}
	return ct, nil
}

// writeOutput writes to a store location, or to w when ref is "-" or empty
func (o *rootOptions) writeOutput(ctx context.Context, w io.Writer, ref string, fn func(io.Writer) error) error {
	if ref == "" || ref == "-" {
		return fn(w)
	}
	loc, err := storage.ParseLocation(ref, o.cfg.S3())
	if err != nil {
		return err
	}
	return storage.WriteFile(ctx, loc.Store, loc.Path, fn)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
