package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/noah-isme/pos-register/internal/sale"
)

// TimeLayout is the layout of the sale time on a receipt.
const TimeLayout = "2006-01-02 15:04"

const (
	header = "------------------ Begin receipt -------------------"
	footer = "------------------ End receipt ---------------------"

	maxNameLen   = 21
	truncatedLen = 19
)

// Printer writes fixed-width receipts to an output device.
type Printer struct {
	mu       sync.Mutex
	out      io.Writer
	currency string
}

// NewPrinter prints to out using currency as the amount suffix.
func NewPrinter(out io.Writer, currency string) *Printer {
	if currency == "" {
		currency = "SEK"
	}
	return &Printer{out: out, currency: currency}
}

// PrintReceipt writes r in one write so receipts never interleave.
func (p *Printer) PrintReceipt(r sale.Receipt) error {
	if p == nil || p.out == nil {
		return errors.New("receipt: output not configured")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.out.Write(Format(r, p.currency))
	return err
}

// Format renders r. Items are listed once per distinct id in the order they
// were first bought.
func Format(r sale.Receipt, currency string) []byte {
	var b bytes.Buffer
	snap := r.Sale
	fmt.Fprintln(&b, header)
	fmt.Fprintf(&b, "Time of Sale: %38s\n\n", snap.Time.Format(TimeLayout))
	for _, line := range r.Lines {
		fmt.Fprintf(&b, "%-24s %2d x %7s %10s %s\n",
			displayName(line.Item.Name), line.Qty,
			line.Item.Price.Colonized(), line.Total.Colonized(), currency)
	}
	b.WriteString("\n")
	for _, d := range snap.Discounts {
		fmt.Fprintf(&b, "Discount: %38s %s\n", "-"+d.Amount.Colonized(), currency)
		if d.Discount.Description != "" {
			fmt.Fprintf(&b, "  %s\n", d.Discount.Description)
		}
	}
	if len(snap.Discounts) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %41s %s\n", snap.TotalPrice.Colonized(), currency)
	fmt.Fprintf(&b, "VAT: %43s %s\n\n", snap.TotalVAT.Colonized(), currency)
	fmt.Fprintf(&b, "Cash: %42s %s\n", snap.AmountPaid.Colonized(), currency)
	fmt.Fprintf(&b, "Change: %40s %s\n", snap.Change.Colonized(), currency)
	fmt.Fprintln(&b, footer)
	return b.Bytes()
}

func displayName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLen {
		return string(runes[:truncatedLen]) + "..."
	}
	return name
}
