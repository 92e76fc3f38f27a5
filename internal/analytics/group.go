package analytics

import (
	"sort"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
)

// groupByPair partitions a ledger snapshot into one date-ascending series per
// entity pair. The result is ordered by ISIN, then exchange name.
func groupByPair(rows []contracts.LedgerRow) []contracts.Series {
	index := make(map[contracts.PairKey]int)
	var series []contracts.Series

	for _, row := range rows {
		key := row.Pair.Key()
		i, ok := index[key]
		if !ok {
			i = len(series)
			index[key] = i
			series = append(series, contracts.Series{Pair: row.Pair})
		}
		series[i].Quotes = append(series[i].Quotes, row.Quote)
	}

	for i := range series {
		qs := series[i].Quotes
		sort.SliceStable(qs, func(a, b int) bool { return qs[a].Date.Before(qs[b].Date) })
	}

	sort.Slice(series, func(a, b int) bool {
		pa, pb := series[a].Pair, series[b].Pair
		if pa.Security.ISIN != pb.Security.ISIN {
			return pa.Security.ISIN < pb.Security.ISIN
		}
		return pa.Exchange.Name < pb.Exchange.Name
	})

	return series
}
