// Package journal provides an async, daily-rotated CSV audit trail of
// every market event, and restart reconstruction of the most recent
// snapshots from that trail. Adapted from the teacher's
// internal/logger/csv.go async writer and internal/state/loader.go
// restart reader, repointed at market.Event instead of a trade
// indicator snapshot.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"distmarket/internal/market"

	"github.com/rs/zerolog"
)

const (
	chanSize    = 4096
	bufSize     = 1 << 20 // 1 MB
	flushPeriod = 1 * time.Second
)

// Row is a single audit-log line derived from a market.Event, with
// every fixed-point value already rendered as a decimal string.
type Row struct {
	TimestampUnixMilli int64
	MarketID           string
	Kind               string
	PositionID         string
	Phase              string
	Mu                 string
	Sigma              string
	K                  string
	Backing            string
	Payout             string
}

// BuildRow converts a market.Event into the row the journal persists.
func BuildRow(ev market.Event, now time.Time) Row {
	return Row{
		TimestampUnixMilli: now.UnixMilli(),
		MarketID:           ev.MarketID.String(),
		Kind:               ev.Kind.String(),
		PositionID:         ev.PositionID.String(),
		Phase:              ev.Snapshot.Phase.String(),
		Mu:                 ev.Snapshot.Mu.String(),
		Sigma:              ev.Snapshot.Sigma.String(),
		K:                  ev.Snapshot.K.String(),
		Backing:            ev.Snapshot.Backing.String(),
		Payout:             ev.Payout.String(),
	}
}

// Writer is an async, daily-rotated CSV journal.
//
// Architecture:
//
//	event subscriber -> ch (buffered 4096) -> Writer goroutine -> daily CSV
//
// A slow disk never blocks the market state machine: writes are a
// non-blocking channel send that drops the row if the channel is full.
type Writer struct {
	ch     chan Row
	logDir string
	log    zerolog.Logger
}

// NewWriter creates a journal writer rooted at logDir and starts its
// background goroutine.
func NewWriter(logDir string, log zerolog.Logger) *Writer {
	w := &Writer{
		ch:     make(chan Row, chanSize),
		logDir: logDir,
		log:    log,
	}
	go w.run()
	return w
}

// Write is a non-blocking send; the row is dropped if the writer is
// backed up rather than stalling the caller.
func (w *Writer) Write(row Row) {
	select {
	case w.ch <- row:
	default:
		w.log.Warn().Msg("journal: writer backed up, dropping row")
	}
}

// Subscribe wires a market.Event bus channel directly into the
// journal, converting and writing every event it receives until ch is
// closed.
func (w *Writer) Subscribe(ch <-chan market.Event) {
	go func() {
		for ev := range ch {
			w.Write(BuildRow(ev, time.Now()))
		}
	}()
}

func (w *Writer) run() {
	if err := os.MkdirAll(w.logDir, 0755); err != nil {
		w.log.Error().Err(err).Str("dir", w.logDir).Msg("journal: failed to create log dir")
		return
	}

	var (
		currentDay string
		file       *os.File
		writer     *bufio.Writer
	)

	ticker := time.NewTicker(flushPeriod)
	defer ticker.Stop()

	openFile := func(day string) {
		if file != nil {
			writer.Flush()
			file.Close()
		}
		path := filepath.Join(w.logDir, day+".csv")
		var err error
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			w.log.Error().Err(err).Str("path", path).Msg("journal: failed to open file")
			return
		}
		writer = bufio.NewWriterSize(file, bufSize)

		info, _ := file.Stat()
		if info != nil && info.Size() == 0 {
			fmt.Fprintln(writer, "timestamp,market_id,kind,position_id,phase,mu,sigma,k,backing,payout")
		}
		currentDay = day
	}

	for {
		select {
		case row, ok := <-w.ch:
			if !ok {
				if writer != nil {
					writer.Flush()
				}
				if file != nil {
					file.Close()
				}
				return
			}
			day := time.UnixMilli(row.TimestampUnixMilli).UTC().Format("2006-01-02")
			if day != currentDay {
				openFile(day)
			}
			if writer == nil {
				continue
			}
			fmt.Fprintf(writer, "%d,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
				row.TimestampUnixMilli, row.MarketID, row.Kind, row.PositionID,
				row.Phase, row.Mu, row.Sigma, row.K, row.Backing, row.Payout)

		case <-ticker.C:
			if writer != nil {
				writer.Flush()
			}
		}
	}
}
