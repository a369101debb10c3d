package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	sampleProducts = []string{"Widget", "Gadget", "Gizmo", "Doohickey", "Sprocket", "Thingamajig"}
	sampleRegions  = []string{"North", "South", "East", "West"}
	sampleChannels = []string{"online", "retail", "partner"}
	samplePrices   = map[string]float64{
		"Widget":      19.99,
		"Gadget":      49.5,
		"Gizmo":       12.25,
		"Doohickey":   7.8,
		"Sprocket":    3.15,
		"Thingamajig": 99,
	}
)

// SampleSales builds a deterministic synthetic sales dataset with the
// SalesColumns layout, one row per order over the given number of days.
func SampleSales(seed int64, days int) *Table {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t := New(SalesColumns...)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		orders := 3 + rng.Intn(5)
		for o := 0; o < orders; o++ {
			product := sampleProducts[rng.Intn(len(sampleProducts))]
			units := int64(1 + rng.Intn(12))
			price := samplePrices[product]
			revenue := math.Round(float64(units)*price*100) / 100
			_ = t.Append(
				date,
				product,
				sampleRegions[rng.Intn(len(sampleRegions))],
				sampleChannels[rng.Intn(len(sampleChannels))],
				units,
				price,
				revenue,
				fmt.Sprintf("C%04d", rng.Intn(500)),
			)
		}
	}
	return t
}
