package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/bitpack/frame"
)

func (a *app) newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Unpack a message with the root record and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.decode(cmd)
		},
	}
}

func (a *app) decode(cmd *cobra.Command) error {
	doc, err := a.loadSchema()
	if err != nil {
		return err
	}

	input, err := a.readInput(cmd)
	if err != nil {
		return err
	}

	packed, err := decodeText(a.v.GetString(flagFormat), input)
	if err != nil {
		return err
	}

	root := doc.Root
	if a.v.GetBool(flagFrame) {
		var h frame.Header
		packed, h, err = frame.Decode(packed, frame.WithExpectedFingerprint(root.Fingerprint()))
		if err != nil {
			return err
		}
		a.log.Info("Unwrapped frame",
			zap.Stringer("compression", h.Compression),
			zap.Uint32("payload", h.PayloadLen),
			zap.Uint32("raw", h.RawLen),
		)
	}

	values, err := root.Unmarshal(packed)
	if err != nil {
		return err
	}
	a.log.Info("Unpacked message", zap.String("record", root.Name()), zap.Int("bytes", len(packed)))

	out, err := json.MarshalIndent(root.ToMap(values), "", "  ")
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(append(out, '\n'))

	return err
}
