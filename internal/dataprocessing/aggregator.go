package dataprocessing

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"salesdash/pkg/contracts/domain"
)

// DefaultTopN is the leaderboard length.
const DefaultTopN = 20

// AggregatorConfig holds configuration options for the Aggregator.
type AggregatorConfig struct {
	TopN int
	// ItemImages, when set, supplies candidate image URLs for best-item entries.
	ItemImages func(itemCode string) []string
}

// Aggregator computes KPIs, leaderboards and monthly rollups. Aggregate is a
// pure function of its input; all accumulators live inside one call.
type Aggregator struct {
	topN       int
	itemImages func(string) []string
}

// NewAggregator creates an aggregator. TopN <= 0 selects DefaultTopN.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.TopN <= 0 {
		config.TopN = DefaultTopN
	}
	return &Aggregator{topN: config.TopN, itemImages: config.ItemImages}
}

type invoiceSet map[string]struct{}

func (s invoiceSet) add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

type clientPartition struct {
	value    map[string]decimal.Decimal
	invoices map[string]invoiceSet
	names    map[string]string
}

func newClientPartition() *clientPartition {
	return &clientPartition{
		value:    make(map[string]decimal.Decimal),
		invoices: make(map[string]invoiceSet),
		names:    make(map[string]string),
	}
}

type itemAcc struct {
	stat  domain.ItemStat
	value decimal.Decimal
	qty   decimal.Decimal
}

type monthAcc struct {
	invoices invoiceSet
	qty      decimal.Decimal
	turnover decimal.Decimal
}

// Aggregate computes the full Aggregate for rows. Sums are exact decimal
// arithmetic, so the result does not depend on row order.
func (a *Aggregator) Aggregate(rows []domain.SalesLine) domain.Aggregate {
	invoices := invoiceSet{}
	turnover := decimal.Zero
	totalQty := decimal.Zero

	clients := map[string]*clientPartition{
		domain.InvoiceTypeOut: newClientPartition(),
		domain.InvoiceTypeIn:  newClientPartition(),
	}
	supplierValue := make(map[string]decimal.Decimal)
	supplierInvoices := make(map[string]invoiceSet)
	items := make(map[string]*itemAcc)
	months := make(map[string]*monthAcc)

	for _, r := range rows {
		line := toDecimal(r.LineTotal)
		qty := toDecimal(r.Qty)

		invoices.add(r.InvoiceID)
		turnover = turnover.Add(line)
		totalQty = totalQty.Add(qty)

		if p, ok := clients[r.Type]; ok {
			if r.Client != "" {
				p.value[r.Client] = p.value[r.Client].Add(line)
			}
			// Phone is the identity for invoice counts. Lines without a
			// phone fall back to the client name.
			identity := r.Phone
			if identity == "" {
				identity = r.Client
			}
			if identity != "" {
				if p.invoices[identity] == nil {
					p.invoices[identity] = invoiceSet{}
				}
				p.invoices[identity].add(r.InvoiceID)
				if p.names[identity] == "" && r.Client != "" {
					p.names[identity] = r.Client
				}
			}
		}

		if r.Supplier != "" {
			supplierValue[r.Supplier] = supplierValue[r.Supplier].Add(line)
			if supplierInvoices[r.Supplier] == nil {
				supplierInvoices[r.Supplier] = invoiceSet{}
			}
			supplierInvoices[r.Supplier].add(r.InvoiceID)
		}

		it, ok := items[r.ItemCode]
		if !ok {
			it = &itemAcc{stat: domain.ItemStat{
				ItemCode:    r.ItemCode,
				Description: r.Description,
				Category:    r.Category,
				Subcategory: r.Subcategory,
			}}
			items[r.ItemCode] = it
		}
		it.value = it.value.Add(line)
		it.qty = it.qty.Add(qty)

		if r.YearMonth != "" {
			m, ok := months[r.YearMonth]
			if !ok {
				m = &monthAcc{invoices: invoiceSet{}}
				months[r.YearMonth] = m
			}
			m.invoices.add(r.InvoiceID)
			m.qty = m.qty.Add(qty)
			m.turnover = m.turnover.Add(line)
		}
	}

	agg := domain.Aggregate{
		InvoiceCount:      len(invoices),
		Turnover:          turnover.InexactFloat64(),
		TotalQty:          totalQty.InexactFloat64(),
		AveragePerInvoice: average(turnover, len(invoices)),
		TopClients:        make(map[string]domain.ClientBoards, len(clients)),
		TopSuppliers: domain.SupplierBoards{
			ByValue:    a.rankValues(supplierValue),
			ByInvoices: a.rankCounts(supplierInvoices, nil),
		},
		BestItems: a.rankItems(items),
		Monthly:   rollupMonths(months),
	}
	for code, p := range clients {
		agg.TopClients[code] = domain.ClientBoards{
			ByValue:    a.rankValues(p.value),
			ByInvoices: a.rankCounts(p.invoices, p.names),
		}
	}
	return agg
}

// toDecimal maps non-finite values to zero; decimal cannot represent them.
func toDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func average(total decimal.Decimal, count int) float64 {
	if count == 0 {
		return 0
	}
	return total.Div(decimal.NewFromInt(int64(count))).InexactFloat64()
}

// rankValues sorts by value descending, then name ascending, and truncates.
func (a *Aggregator) rankValues(values map[string]decimal.Decimal) []domain.RankedValue {
	type entry struct {
		name  string
		value decimal.Decimal
	}
	entries := make([]entry, 0, len(values))
	for name, v := range values {
		entries = append(entries, entry{name, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].value.Cmp(entries[j].value); c != 0 {
			return c > 0
		}
		return entries[i].name < entries[j].name
	})

	out := make([]domain.RankedValue, 0, min(len(entries), a.topN))
	for _, e := range entries[:min(len(entries), a.topN)] {
		out = append(out, domain.RankedValue{Name: e.name, Value: e.value.InexactFloat64()})
	}
	return out
}

// rankCounts ranks identities by distinct invoices. names maps an identity
// to its display name; without an entry the identity itself is shown.
func (a *Aggregator) rankCounts(sets map[string]invoiceSet, names map[string]string) []domain.RankedCount {
	out := make([]domain.RankedCount, 0, len(sets))
	for key, set := range sets {
		entry := domain.RankedCount{Name: key, Invoices: len(set)}
		if names != nil {
			entry.Key = key
			if n := names[key]; n != "" {
				entry.Name = n
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Invoices != out[j].Invoices {
			return out[i].Invoices > out[j].Invoices
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	return out[:min(len(out), a.topN)]
}

func (a *Aggregator) rankItems(items map[string]*itemAcc) domain.ItemBoards {
	accs := make([]*itemAcc, 0, len(items))
	for _, it := range items {
		accs = append(accs, it)
	}

	byValue := make([]*itemAcc, len(accs))
	copy(byValue, accs)
	sort.Slice(byValue, func(i, j int) bool {
		if c := byValue[i].value.Cmp(byValue[j].value); c != 0 {
			return c > 0
		}
		return byValue[i].stat.ItemCode < byValue[j].stat.ItemCode
	})

	byQty := accs
	sort.Slice(byQty, func(i, j int) bool {
		if c := byQty[i].qty.Cmp(byQty[j].qty); c != 0 {
			return c > 0
		}
		return byQty[i].stat.ItemCode < byQty[j].stat.ItemCode
	})

	return domain.ItemBoards{
		ByValue: a.itemStats(byValue),
		ByQty:   a.itemStats(byQty),
	}
}

func (a *Aggregator) itemStats(accs []*itemAcc) []domain.ItemStat {
	n := min(len(accs), a.topN)
	out := make([]domain.ItemStat, 0, n)
	for _, it := range accs[:n] {
		stat := it.stat
		stat.Value = it.value.InexactFloat64()
		stat.Qty = it.qty.InexactFloat64()
		if a.itemImages != nil {
			stat.Images = a.itemImages(stat.ItemCode)
		}
		out = append(out, stat)
	}
	return out
}

// rollupMonths returns months in ascending key order. Keys are zero-padded
// "YYYY-MM", so string order is chronological.
func rollupMonths(months map[string]*monthAcc) []domain.MonthlyRollup {
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.MonthlyRollup, 0, len(keys))
	for _, k := range keys {
		m := months[k]
		out = append(out, domain.MonthlyRollup{
			YearMonth:    k,
			InvoiceCount: len(m.invoices),
			Qty:          m.qty.InexactFloat64(),
			Turnover:     m.turnover.InexactFloat64(),
			Average:      average(m.turnover, len(m.invoices)),
		})
	}
	return out
}
