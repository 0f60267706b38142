package mill

import "time"

// ReasonTotal is one slice of the downtime reason distribution.
type ReasonTotal struct {
	Reason Reason  `json:"reason"`
	Total  float64 `json:"total"`
}

// DowngradePoint holds the per-date mean downgrade components.
type DowngradePoint struct {
	Date     time.Time `json:"date"`
	Material float64   `json:"material"`
	Quality  float64   `json:"quality"`
	Packing  float64   `json:"packing"`
	Total    float64   `json:"total"`
}

// EnergyPoint holds the per-date mean energy split.
type EnergyPoint struct {
	Date    time.Time `json:"date"`
	Machine float64   `json:"machine"`
	Utility float64   `json:"utility"`
	Other   float64   `json:"other"`
}

// ThroughputPoint holds the per-date mean BPT and evenness.
type ThroughputPoint struct {
	Date     time.Time `json:"date"`
	BPT      float64   `json:"bpt"`
	Evenness float64   `json:"evenness"`
}

// Summary is the headline KPI row for a selection.
type Summary struct {
	Observations       int     `json:"observations"`
	Days               int     `json:"days"`
	MeanUtilization    float64 `json:"meanUtilization"`
	MeanDowntime       float64 `json:"meanDowntime"`
	MeanTotalDowngrade float64 `json:"meanTotalDowngrade"`
}

// Dashboard is every chart-ready view for one selection.
type Dashboard struct {
	Selection    Selection         `json:"selection"`
	Summary      Summary           `json:"summary"`
	Utilization  []DatePoint       `json:"utilization"`
	Downtime     []DatePoint       `json:"downtime"`
	ReasonTotals []ReasonTotal     `json:"reasonTotals"`
	Downgrade    []DowngradePoint  `json:"downgrade"`
	Energy       []EnergyPoint     `json:"energy"`
	Throughput   []ThroughputPoint `json:"throughput"`
}

var (
	downgradeFields  = []Field{FieldMaterialDowngrade, FieldQualityDowngrade, FieldPackingDowngrade, FieldTotalDowngrade}
	energyFields     = []Field{FieldMachineEnergy, FieldUtilityEnergy, FieldOtherEnergy}
	throughputFields = []Field{FieldBPT, FieldEvenness}
)

// BuildDashboard recomputes every view for sel from the base observations.
// Selector values are matched by equality only; validate them with
// Catalog.Validate first.
func BuildDashboard(observations []Observation, sel Selection) Dashboard {
	subset := Filter(observations, sel.Plant, sel.Machine)

	downtime, totals := SelectReasonSeries(subset, sel.Reason)

	d := Dashboard{
		Selection:    sel,
		Summary:      summarize(subset),
		Utilization:  MeanByDate(subset, FieldUtilization),
		Downtime:     downtime,
		ReasonTotals: orderedTotals(totals),
	}

	dg := MeanByDateMulti(subset, downgradeFields)
	d.Downgrade = make([]DowngradePoint, len(dg))
	for i, p := range dg {
		d.Downgrade[i] = DowngradePoint{Date: p.Date, Material: p.Values[0], Quality: p.Values[1], Packing: p.Values[2], Total: p.Values[3]}
	}

	en := MeanByDateMulti(subset, energyFields)
	d.Energy = make([]EnergyPoint, len(en))
	for i, p := range en {
		d.Energy[i] = EnergyPoint{Date: p.Date, Machine: p.Values[0], Utility: p.Values[1], Other: p.Values[2]}
	}

	tp := MeanByDateMulti(subset, throughputFields)
	d.Throughput = make([]ThroughputPoint, len(tp))
	for i, p := range tp {
		d.Throughput[i] = ThroughputPoint{Date: p.Date, BPT: p.Values[0], Evenness: p.Values[1]}
	}

	return d
}

func orderedTotals(totals map[Reason]float64) []ReasonTotal {
	out := make([]ReasonTotal, 0, len(totals))
	for _, r := range Reasons {
		if v, ok := totals[r]; ok {
			out = append(out, ReasonTotal{Reason: r, Total: v})
		}
	}
	return out
}

func summarize(subset []Observation) Summary {
	s := Summary{Observations: len(subset)}
	if len(subset) == 0 {
		return s
	}
	days := make(map[time.Time]struct{})
	for _, o := range subset {
		days[Day(o.Date)] = struct{}{}
		s.MeanUtilization += o.Utilization
		s.MeanDowntime += o.Downtime
		s.MeanTotalDowngrade += o.Downgrade.Total()
	}
	n := float64(len(subset))
	s.Days = len(days)
	s.MeanUtilization /= n
	s.MeanDowntime /= n
	s.MeanTotalDowngrade /= n
	return s
}
