package main

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/bitpack/format"
	"github.com/arloliu/bitpack/frame"
)

func (a *app) newEncodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Pack a JSON value document with the root record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.encode(cmd)
		},
	}

	cmd.Flags().String(flagCompression, "none", "Frame payload compression: none, zstd, s2, lz4 or snappy")
	if err := a.v.BindPFlag(flagCompression, cmd.Flags().Lookup(flagCompression)); err != nil {
		panic(err)
	}

	return cmd
}

func (a *app) encode(cmd *cobra.Command) error {
	doc, err := a.loadSchema()
	if err != nil {
		return err
	}

	input, err := a.readInput(cmd)
	if err != nil {
		return err
	}

	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("value document: %w", err)
	}

	root := doc.Root
	values, err := root.FromMap(m)
	if err != nil {
		return err
	}

	packed, err := root.Marshal(values)
	if err != nil {
		return err
	}
	a.log.Info("Packed message", zap.String("record", root.Name()), zap.Int("bytes", len(packed)))

	if a.v.GetBool(flagFrame) {
		name := a.v.GetString(flagCompression)
		ct, ok := format.ParseCompressionType(name)
		if !ok {
			return fmt.Errorf("unknown compression %q", name)
		}

		packed, err = frame.Encode(packed,
			frame.WithCompression(ct),
			frame.WithFingerprint(root.Fingerprint()),
		)
		if err != nil {
			return err
		}

		h, err := frame.ParseHeader(packed)
		if err != nil {
			return err
		}
		stats := h.Stats()
		a.log.Info("Framed message",
			zap.Stringer("compression", stats.Algorithm),
			zap.Int64("original", stats.OriginalSize),
			zap.Int64("compressed", stats.CompressedSize),
			zap.Float64("ratio", stats.CompressionRatio()),
		)
	}

	out, err := encodeText(a.v.GetString(flagFormat), packed)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}
