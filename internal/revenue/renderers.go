package revenue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/pos-register/internal/money"
)

const defaultCurrency = "SEK"

// FileTimeLayout is the timestamp layout of revenue log lines.
const FileTimeLayout = "2006-01-02 15:04:05"

func currencyOrDefault(c string) string {
	if strings.TrimSpace(c) == "" {
		return defaultCurrency
	}
	return strings.TrimSpace(c)
}

// ConsoleRenderer prints the running total for the cashier.
type ConsoleRenderer struct {
	Out      io.Writer
	Currency string
}

func (c ConsoleRenderer) Render(total money.Amount) error {
	if c.Out == nil {
		return errors.New("revenue: console output not configured")
	}
	_, err := fmt.Fprintf(c.Out, "Total Revenue: %s %s\n\n", total.Colonized(), currencyOrDefault(c.Currency))
	return err
}

// FileRenderer appends one line per update to a log file kept open in
// append mode until Close.
type FileRenderer struct {
	mu       sync.Mutex
	file     *os.File
	Currency string
	Now      func() time.Time
}

// OpenFile opens (or creates) path for appending.
func OpenFile(path string) (*FileRenderer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("revenue: open log file: %w", err)
	}
	return &FileRenderer{file: f}, nil
}

func (f *FileRenderer) Render(total money.Amount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return errors.New("revenue: log file is not open")
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	_, err := fmt.Fprintf(f.file, "%s, Total Revenue: %s %s\n",
		now().Format(FileTimeLayout), total.Colonized(), currencyOrDefault(f.Currency))
	return err
}

// Close releases the file. Later renders fail.
func (f *FileRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// GaugeRenderer publishes the running total to a Prometheus gauge.
type GaugeRenderer struct {
	Gauge prometheus.Gauge
}

func (g GaugeRenderer) Render(total money.Amount) error {
	if g.Gauge == nil {
		return errors.New("revenue: gauge not configured")
	}
	g.Gauge.Set(total.Decimal().InexactFloat64())
	return nil
}
