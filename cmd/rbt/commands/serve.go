// ABOUTME: serve command
// ABOUTME: Streams a decoded Robot file to WebSocket clients with frame events
package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/internal/discovery"
	"github.com/scummtools/robot-go/internal/server"
)

type serveOptions struct {
	port    int
	name    string
	codec   string
	noMDNS  bool
	unpaced bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve <input>",
		Short: "Stream the reconstructed audio over WebSocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			in, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := root.decode(ctx, in, root.sessionOptions())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			cfg := root.cfg.Server
			if flags.Changed("port") {
				cfg.Port = opts.port
			}
			if flags.Changed("name") {
				cfg.Name = opts.name
			}
			if flags.Changed("codec") {
				cfg.Codec = opts.codec
			}
			if opts.noMDNS {
				cfg.MDNS = false
			}

			srv := server.New(server.Config{
				Port:       cfg.Port,
				Name:       cfg.Name,
				EnableMDNS: cfg.MDNS,
				Debug:      root.verbose,
				Codec:      cfg.Codec,
				Unpaced:    opts.unpaced,
				File:       in.name,
			}, res)
			cmd.Printf("Serving %s on :%d%s\n", in.name, cfg.Port, discovery.StreamPath)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 8927, "listen port")
	cmd.Flags().StringVar(&opts.name, "name", "Robot Server", "advertised server name")
	cmd.Flags().StringVar(&opts.codec, "codec", "", "force pcm or opus")
	cmd.Flags().BoolVar(&opts.noMDNS, "no-mdns", false, "disable mDNS advertisement")
	cmd.Flags().BoolVar(&opts.unpaced, "unpaced", false, "send audio as fast as clients read it")
	return cmd
}
