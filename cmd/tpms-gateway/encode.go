//go:build !rp2040 && !rp2350

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tpmsbridge-go/services/ble"
	"tpmsbridge-go/services/decoder"
)

var encodeCmd = &cobra.Command{
	Use:          "encode",
	Short:        "Print the telemetry characteristic payload for rtl_433 JSON read from stdin",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return encode(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func encode(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		rec, err := decoder.Parse(sc.Bytes())
		if err != nil {
			fmt.Fprintf(w, "skip: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "%s\n", ble.EncodeTelemetry(rec))
	}
	return sc.Err()
}
