package inspection

// TotalPoints counts every recorded point across a vehicle's systems.
func TotalPoints(points map[SystemKind][]Point) int {
	total := 0
	for _, ps := range points {
		total += len(ps)
	}
	return total
}

// CountByStatus tallies recorded points per status.
func CountByStatus(points []Point) map[Status]int {
	out := make(map[Status]int, 4)
	for _, p := range points {
		out[p.Status]++
	}
	return out
}

// ApprovalPercentage is the share of points marked good, 0 when nothing has
// been recorded.
func ApprovalPercentage(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	good := 0
	for _, p := range points {
		if p.Status == StatusGood {
			good++
		}
	}
	return float64(good) * 100 / float64(len(points))
}

// RollupStatus reduces a set of points to one verdict: nothing recorded means
// not reviewed; all good means approved; any rejection wins over everything
// else; otherwise the set is still in review.
func RollupStatus(points []Point) Rollup {
	if len(points) == 0 {
		return RollupNotReviewed
	}
	allGood := true
	for _, p := range points {
		if p.Status == StatusRejected {
			return RollupRejected
		}
		if p.Status != StatusGood {
			allGood = false
		}
	}
	if allGood {
		return RollupApproved
	}
	return RollupInReview
}

// SystemSummary is one row of a vehicle's systems overview.
type SystemSummary struct {
	System   SystemKind `json:"sistema"`
	Label    string     `json:"etiqueta"`
	Icon     string     `json:"icono"`
	Rollup   Rollup     `json:"estado"`
	Color    string     `json:"color"`
	Recorded int        `json:"puntos_registrados"`
	Total    int        `json:"puntos_totales"`
}

// SystemsOverview builds the per-system summary in canonical order. Systems
// never opened (no detail row, so no map entry) are skipped; an opened system
// with zero points shows as not reviewed.
func SystemsOverview(points map[SystemKind][]Point) []SystemSummary {
	out := make([]SystemSummary, 0, len(SystemOrder))
	for _, k := range SystemOrder {
		ps, ok := points[k]
		if !ok {
			continue
		}
		rollup := RollupStatus(ps)
		out = append(out, SystemSummary{
			System:   k,
			Label:    k.Label(),
			Icon:     k.Icon(),
			Rollup:   rollup,
			Color:    rollup.Color(),
			Recorded: len(ps),
			Total:    len(Checklist(k)),
		})
	}
	return out
}

// OverallRollup reduces every recorded point on the vehicle to one verdict.
func OverallRollup(points map[SystemKind][]Point) Rollup {
	var all []Point
	for _, ps := range points {
		all = append(all, ps...)
	}
	return RollupStatus(all)
}
