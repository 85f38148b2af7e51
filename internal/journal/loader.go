package journal

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"distmarket/internal/fp"
	"distmarket/internal/market"

	"github.com/rs/zerolog"
)

// LoadLatestSnapshot reads the most recent CSV journal file in logDir
// and reconstructs the market's last known snapshot from its final
// row. Used only at startup when the ring buffer is empty (process
// restart) — a best-effort reconstruction, not a substitute for the
// authoritative in-memory state while the process is live.
func LoadLatestSnapshot(logDir string, log zerolog.Logger) (market.Snapshot, bool) {
	pattern := filepath.Join(logDir, "*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil || len(files) == 0 {
		log.Info().Str("dir", logDir).Msg("journal: no csv files found, starting cold")
		return market.Snapshot{}, false
	}

	sort.Strings(files)
	latest := files[len(files)-1]

	f, err := os.Open(latest)
	if err != nil {
		log.Warn().Err(err).Str("path", latest).Msg("journal: failed to open latest file")
		return market.Snapshot{}, false
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Warn().Err(err).Msg("journal: failed to read header")
		return market.Snapshot{}, false
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	var last []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		last = row
	}
	if last == nil {
		return market.Snapshot{}, false
	}

	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(last) {
			return ""
		}
		return strings.TrimSpace(last[i])
	}

	mu, err := fp.ParseSigned(orZero(get("mu")))
	if err != nil {
		return market.Snapshot{}, false
	}
	sigma, err := fp.ParseUnsigned(orZero(get("sigma")))
	if err != nil {
		return market.Snapshot{}, false
	}
	k, err := fp.ParseUnsigned(orZero(get("k")))
	if err != nil {
		return market.Snapshot{}, false
	}
	backing, err := fp.ParseUnsigned(orZero(get("backing")))
	if err != nil {
		return market.Snapshot{}, false
	}

	phase := market.Uninitialized
	switch get("phase") {
	case "Open":
		phase = market.Open
	case "Settled":
		phase = market.Settled
	}

	return market.Snapshot{
		Mu:      mu,
		Sigma:   sigma,
		K:       k,
		Backing: backing,
		Phase:   phase,
	}, true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
