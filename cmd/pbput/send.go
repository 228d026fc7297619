package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-putbytes/link"
	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/putbytes"
)

var errBundle = errors.New("file is a zip bundle, unpack it and send its parts")

type sendFlags struct {
	addr      string
	kind      string
	bank      uint8
	filename  string
	appID     uint32
	chunkSize int
	quiet     bool
}

type sendRequest struct {
	path      string
	kind      putbytes.ObjectKind
	bank      *uint8
	filename  string
	appID     *uint32
	chunkSize int
}

func newSendCmd(g *globalFlags) *cobra.Command {
	f := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send FILE",
		Short: "Send FILE to a device and install it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				g.cfg.Addr = f.addr
			}
			if flags.Changed("chunk-size") {
				g.cfg.ChunkSize = f.chunkSize
			}
			if err := g.cfg.validate(); err != nil {
				return err
			}

			kind, err := putbytes.ParseKind(f.kind)
			if err != nil {
				return err
			}

			req := sendRequest{
				path:      args[0],
				kind:      kind,
				filename:  f.filename,
				chunkSize: g.cfg.ChunkSize,
			}
			if flags.Changed("bank") {
				req.bank = &f.bank
			}
			if flags.Changed("app-id") {
				req.appID = &f.appID
			}

			var progress io.Writer = cmd.ErrOrStderr()
			if f.quiet {
				progress = io.Discard
			}

			return runSend(cmd.Context(), g.cfg, req, cmd.OutOrStdout(), progress)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.addr, "addr", g.cfg.Addr, "device address host:port")
	flags.StringVar(&f.kind, "kind", "binary", "object kind: firmware, recovery, system-resources, resources, binary, file, worker")
	flags.Uint8Var(&f.bank, "bank", 0, "storage bank of a system-level object")
	flags.StringVar(&f.filename, "filename", "", "destination filename of a system-level object")
	flags.Uint32Var(&f.appID, "app-id", 0, "install ID of the target application")
	flags.IntVar(&f.chunkSize, "chunk-size", putbytes.DefaultChunkSize, "maximum bytes per put request")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "do not render progress")
	cmd.MarkFlagsMutuallyExclusive("app-id", "bank")
	cmd.MarkFlagsMutuallyExclusive("app-id", "filename")

	return cmd
}

func runSend(ctx context.Context, cfg config, req sendRequest, out io.Writer, progressOut io.Writer) error {
	data, err := readObject(req.path)
	if err != nil {
		return err
	}

	log := logger.GetLogger()

	opts := []putbytes.Option{
		putbytes.WithLogger(log),
		putbytes.WithChunkSize(req.chunkSize),
	}
	if req.bank != nil {
		opts = append(opts, putbytes.WithBank(*req.bank))
	}
	if req.filename != "" {
		opts = append(opts, putbytes.WithFilename(req.filename))
	}
	if req.appID != nil {
		opts = append(opts, putbytes.WithAppInstallID(*req.appID))
	}

	bar := newProgressBar(progressOut, filepath.Base(req.path))
	opts = append(opts, putbytes.WithProgress(bar))

	conn, err := link.Dial(ctx, cfg.Addr, link.WithLogger(log), link.WithResponseTimeout(cfg.ResponseTimeout))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	s, err := putbytes.NewSession(conn, req.kind, data, opts...)
	if err != nil {
		return err
	}

	err = s.Send(ctx)
	bar.finish()
	if err != nil {
		if putbytes.IsRejected(err) {
			return errors.Wrapf(err, "device refused %s", req.path)
		}

		return errors.Wrapf(err, "send %s to %s", req.path, cfg.Addr)
	}

	fmt.Fprintf(out, "installed %s: %s, %d bytes, cookie 0x%08X\n", req.path, req.kind, s.Size(), s.Cookie())

	return nil
}

// readObject reads the object at path. Zip bundles are refused: they hold
// several objects that are sent one by one.
func readObject(path string) ([]byte, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "detect file type")
	}
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil, errors.Wrap(errBundle, path)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read object")
	}

	return data, nil
}
