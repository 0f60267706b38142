package mill

import (
	"slices"
	"time"
)

// DatePoint is one value of a date-indexed series.
type DatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MultiPoint carries several averaged fields for one date. Values[i]
// corresponds to the i-th field passed to MeanByDateMulti.
type MultiPoint struct {
	Date   time.Time `json:"date"`
	Values []float64 `json:"values"`
}

// Filter returns the observations matching plant and machine. All (or "")
// leaves a dimension unconstrained. The input is never modified and the
// result preserves input order.
func Filter(observations []Observation, plant, machine string) []Observation {
	out := make([]Observation, 0, len(observations))
	for _, o := range observations {
		if !IsAll(plant) && o.Plant != plant {
			continue
		}
		if !IsAll(machine) && o.Machine != machine {
			continue
		}
		out = append(out, o)
	}
	return out
}

// MeanByDate averages field per date over all remaining dimensions, in
// ascending date order. Dates with no rows do not appear.
func MeanByDate(observations []Observation, field Field) []DatePoint {
	multi := MeanByDateMulti(observations, []Field{field})
	out := make([]DatePoint, len(multi))
	for i, p := range multi {
		out[i] = DatePoint{Date: p.Date, Value: p.Values[0]}
	}
	return out
}

type dateAcc struct {
	date  time.Time
	sums  []float64
	count int
}

// MeanByDateMulti averages every field per date in a single pass.
func MeanByDateMulti(observations []Observation, fields []Field) []MultiPoint {
	groups := make(map[time.Time]*dateAcc)
	for _, o := range observations {
		d := Day(o.Date)
		acc, ok := groups[d]
		if !ok {
			acc = &dateAcc{date: d, sums: make([]float64, len(fields))}
			groups[d] = acc
		}
		for i, f := range fields {
			acc.sums[i] += f.Value(o)
		}
		acc.count++
	}

	out := make([]MultiPoint, 0, len(groups))
	for _, acc := range groups {
		values := make([]float64, len(fields))
		for i, s := range acc.sums {
			values[i] = s / float64(acc.count)
		}
		out = append(out, MultiPoint{Date: acc.date, Values: values})
	}
	slices.SortFunc(out, func(a, b MultiPoint) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// SumByCategory totals each reason's breakdown share across all observations.
// An empty subset yields an empty map.
func SumByCategory(observations []Observation, reasons []Reason) map[Reason]float64 {
	if len(observations) == 0 {
		return map[Reason]float64{}
	}
	totals := make(map[Reason]float64, len(reasons))
	for _, o := range observations {
		for _, r := range reasons {
			totals[r] += o.Breakdown.Get(r)
		}
	}
	return totals
}

// SelectReasonSeries returns the downtime series and reason totals for a
// selection. With reason unset (All or ""), the series is overall downtime
// and totals cover every reason; otherwise both are restricted to reason.
func SelectReasonSeries(observations []Observation, reason Reason) ([]DatePoint, map[Reason]float64) {
	if IsAll(string(reason)) {
		return MeanByDate(observations, FieldDowntime), SumByCategory(observations, Reasons)
	}
	return MeanByDate(observations, ReasonField(reason)), SumByCategory(observations, []Reason{reason})
}
