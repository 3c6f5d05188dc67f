package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/tastystream/internal/decimal"
	"github.com/rickgao/tastystream/internal/symbol"
)

func newQuoteSymbolCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quote-symbol SYMBOL...",
		Short: "Convert option symbols to feed quote symbols",
		Example: `  tastystream quote-symbol "IQ    200918P00017500"
  tastystream quote-symbol --json "./NGZ0 LNEZ0 201124C4.5"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, raw := range args {
				c, err := symbol.Parse(raw)
				if err != nil {
					return err
				}
				if asJSON {
					if err := enc.Encode(contractJSON(c)); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(out, c.Quote)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print every decoded field as JSON")
	return cmd
}

type contractOutput struct {
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Future     bool            `json:"future"`
	Root       string          `json:"root,omitempty"`
	Exchange   string          `json:"exchange,omitempty"`
	Expiration string          `json:"expiration,omitempty"`
	Type       string          `json:"type"`
	Strike     decimal.Decimal `json:"strike"`
	Quote      string          `json:"quote_symbol"`
}

func contractJSON(c symbol.Contract) contractOutput {
	out := contractOutput{
		Symbol:     c.Symbol,
		Underlying: c.Underlying,
		Future:     c.Future,
		Root:       c.Root,
		Exchange:   c.Exchange,
		Type:       c.Type.Name(),
		Strike:     c.Strike,
		Quote:      c.Quote.String(),
	}
	if !c.Expiration.IsZero() {
		out.Expiration = c.Expiration.String()
	}
	return out
}

func newDecimalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decimal VALUE...",
		Short: "Parse values with the exact 4-digit decimal codec",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, s := range args {
				d, err := decimal.Parse(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", d, d.Rat().RatString())
			}
			return nil
		},
	}
}
