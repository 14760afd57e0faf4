package store

import (
	"sort"

	"github.com/loadboard/loadboard/pkg/series"
)

// Result summarizes one reconciliation: the final row set plus how many
// existing records were modified and how many were newly created. For a batch
// with unique keys, Updated+Created equals the batch size.
type Result struct {
	Header  string
	Rows    []series.Row
	Updated int
	Created int
}

// Reconcile merges an update batch into a store snapshot. Matching is a keyed
// merge on raw timestamp text, so the outcome does not depend on batch order:
// rows whose timestamp appears in the batch are updated in place, keys with
// no existing row become new records, and everything else passes through
// unchanged. The final set is stably sorted ascending by parsed timestamp
// with unsortable rows last, in their original relative order.
func Reconcile(snap Snapshot, updates map[string]series.Update) Result {
	res := Result{Header: snap.Header}

	found := make(map[string]bool, len(updates))
	rows := make([]series.Row, 0, len(snap.Rows)+len(updates))

	for _, row := range snap.Rows {
		if u, ok := updates[row.RawTimestamp()]; ok {
			row.ApplyUpdate(u)
			found[row.RawTimestamp()] = true
			res.Updated++
		}
		rows = append(rows, row)
	}

	// Create records for keys the file had no line for. Keys are walked in
	// sorted order so runs over the same batch yield identical output.
	missing := make([]string, 0, len(updates))
	for key := range updates {
		if !found[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		rows = append(rows, series.NewRow(updates[key]))
		res.Created++
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ti, iOK := rows[i].Time()
		tj, jOK := rows[j].Time()
		if iOK && jOK {
			return ti.Before(tj)
		}
		// Parseable rows come first; among unparseable rows the stable
		// sort preserves original order.
		return iOK && !jOK
	})

	res.Rows = rows
	return res
}

// KeyUpdates indexes a batch by timestamp. Later entries win on duplicate
// keys, matching keyed-merge semantics.
func KeyUpdates(batch []series.Update) map[string]series.Update {
	keyed := make(map[string]series.Update, len(batch))
	for _, u := range batch {
		keyed[u.Timestamp] = u
	}
	return keyed
}
