package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-putbytes/link"
	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/receiver"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var listen, outDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Emulate a device and store installed objects in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				g.cfg.Listen = listen
			}
			if cmd.Flags().Changed("out") {
				g.cfg.OutDir = outDir
			}

			var lc net.ListenConfig
			ln, err := lc.Listen(cmd.Context(), "tcp", g.cfg.Listen)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", g.cfg.Listen)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s, writing objects to %s\n", ln.Addr(), g.cfg.OutDir)

			return runServe(cmd.Context(), ln, g.cfg.OutDir)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", g.cfg.Listen, "TCP address to accept links on")
	cmd.Flags().StringVar(&outDir, "out", g.cfg.OutDir, "directory for installed objects")

	return cmd
}

// runServe accepts one link at a time on ln until ctx is done.
func runServe(ctx context.Context, ln net.Listener, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	log := logger.GetLogger()
	rcv, err := receiver.New(
		receiver.WithLogger(log),
		receiver.WithInstallFunc(func(obj *receiver.Object) error {
			path := filepath.Join(outDir, objectFileName(obj))
			if err := os.WriteFile(path, obj.Data, 0o644); err != nil { //nolint:gosec // objects are not secrets
				return err
			}
			log.Info("object stored", "path", path, "size", len(obj.Data))

			return nil
		}),
	)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return errors.Wrap(err, "accept link")
		}

		conn, err := link.New(nc, link.WithLogger(log))
		if err != nil {
			_ = nc.Close()
			return err
		}

		log.Info("link accepted", "remote", nc.RemoteAddr().String())
		if err := rcv.Serve(ctx, conn); err != nil && !errors.Is(err, link.ErrClosed) {
			log.Warn("link ended", "error", err)
		}
		_ = conn.Close()
	}
}

// objectFileName names the file an installed object is stored in. The
// sender's filename is used when given, stripped of any directory.
func objectFileName(obj *receiver.Object) string {
	if obj.Filename != "" {
		if base := filepath.Base(obj.Filename); base != "." && base != string(filepath.Separator) && base != ".." {
			return base
		}
	}

	if obj.AppScoped {
		return fmt.Sprintf("app-%d-%s-%08x.bin", obj.AppInstallID, obj.Kind, obj.Cookie)
	}

	return fmt.Sprintf("%s-%08x.bin", obj.Kind, obj.Cookie)
}
