package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pricecompare-api/internal/money"
	"github.com/noah-isme/pricecompare-api/internal/pricing"
	"github.com/noah-isme/pricecompare-api/internal/tax"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogPath string
	root := &cobra.Command{
		Use:          "quote",
		Short:        "Price shopping sessions offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "YAML tax catalog; defaults to the built-in ITBMS table")

	var (
		currency string
		locale   string
		asJSON   bool
	)
	summarize := &cobra.Command{
		Use:   "summarize <session.yaml>",
		Short: "Resolve every item of a session file and print the totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable(catalogPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sess, err := parseSession(data, table)
			if err != nil {
				return err
			}
			if currency == "" {
				currency = sess.Currency
			}
			if locale == "" {
				locale = sess.Locale
			}
			lines, summary := pricing.SummarizeItems(sess.Items)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sess.Names, lines, summary)
			}
			return writeTable(cmd.OutOrStdout(), money.NewFormatter(currency, locale), sess.Names, lines, summary)
		},
	}
	summarize.Flags().StringVar(&currency, "currency", "", "ISO 4217 code used for display")
	summarize.Flags().StringVar(&locale, "locale", "", "BCP 47 locale used for display")
	summarize.Flags().BoolVar(&asJSON, "json", false, "print machine-readable output")

	rates := &cobra.Command{
		Use:   "rates",
		Short: "List the tax catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadTable(catalogPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tPERCENT\tLABEL\tDEFAULT")
			def := table.Default().Code
			for _, r := range table.Rates() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Code, r.Percent.String(), r.Label, r.Code == def)
			}
			categories := table.Categories()
			for _, name := range tax.SortedCategoryNames(categories) {
				fmt.Fprintf(tw, "category %s\t-> %s\t\t\n", name, categories[name])
			}
			return tw.Flush()
		},
	}

	root.AddCommand(summarize, rates)
	return root
}

func loadTable(path string) (*tax.Table, error) {
	if path == "" {
		return tax.DefaultTable(), nil
	}
	return tax.LoadTable(path)
}

func writeTable(w io.Writer, f money.Formatter, names []string, lines []pricing.Line, summary pricing.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ITEM\tQTY\tRATE\tBASE\tTAX\tDISCOUNT\tSUBTOTAL\t")
	for i, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\t%s\t%s\t%s\t\n",
			names[i], l.Quantity.String(), l.TaxRate.String(),
			f.Format(l.BasePrice), f.Format(l.TaxAmount), f.Format(l.DiscountAmount), f.Format(l.Subtotal))
		if l.Promotion != nil && !l.Promotion.IsApplicable {
			fmt.Fprintf(tw, "  promotion skipped: %s\t\t\t\t\t\t\t\n", l.Promotion.NotApplicableReason)
		}
	}
	fmt.Fprintln(tw, "\t\t\t\t\t\t\t")
	for _, key := range sortedKeys(summary.Breakdown) {
		b := summary.Breakdown[key]
		fmt.Fprintf(tw, "tax %s%% (%d items)\t\t\t\t%s\t\t\t\n", key, b.ItemCount, f.Format(b.TaxAmount))
	}
	fmt.Fprintf(tw, "subtotal before tax\t\t\t\t\t\t%s\t\n", f.Format(summary.SubtotalBeforeTax))
	fmt.Fprintf(tw, "total tax\t\t\t\t\t\t%s\t\n", f.Format(summary.TotalTax))
	fmt.Fprintf(tw, "grand total\t\t\t\t\t\t%s\t\n", f.Format(summary.GrandTotal))
	return tw.Flush()
}

type jsonLine struct {
	Name           string `json:"name"`
	TaxCode        string `json:"taxCode"`
	TaxRate        string `json:"taxRate"`
	BasePrice      string `json:"basePrice"`
	TaxAmount      string `json:"taxAmount"`
	DiscountAmount string `json:"discountAmount"`
	Subtotal       string `json:"subtotal"`
	Promotion      string `json:"promotionSkipped,omitempty"`
}

type jsonOutput struct {
	Lines             []jsonLine        `json:"lines"`
	SubtotalBeforeTax string            `json:"subtotalBeforeTax"`
	TotalTax          string            `json:"totalTax"`
	GrandTotal        string            `json:"grandTotal"`
	Breakdown         map[string]string `json:"breakdown"`
}

func writeJSON(w io.Writer, names []string, lines []pricing.Line, summary pricing.Summary) error {
	out := jsonOutput{
		Lines:             make([]jsonLine, 0, len(lines)),
		SubtotalBeforeTax: summary.SubtotalBeforeTax.StringFixed(money.Places),
		TotalTax:          summary.TotalTax.StringFixed(money.Places),
		GrandTotal:        summary.GrandTotal.StringFixed(money.Places),
		Breakdown:         make(map[string]string, len(summary.Breakdown)),
	}
	for key, b := range summary.Breakdown {
		out.Breakdown[key] = b.TaxAmount.StringFixed(money.Places)
	}
	for i, l := range lines {
		jl := jsonLine{
			Name:           names[i],
			TaxCode:        string(l.TaxCode),
			TaxRate:        l.TaxRate.String(),
			BasePrice:      money.Round2(l.BasePrice).StringFixed(money.Places),
			TaxAmount:      l.TaxAmount.StringFixed(money.Places),
			DiscountAmount: money.Round2(l.DiscountAmount).StringFixed(money.Places),
			Subtotal:       money.Round2(l.Subtotal).StringFixed(money.Places),
		}
		if l.Promotion != nil && !l.Promotion.IsApplicable {
			jl.Promotion = l.Promotion.NotApplicableReason
		}
		out.Lines = append(out.Lines, jl)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func sortedKeys(m map[string]pricing.TaxBucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
