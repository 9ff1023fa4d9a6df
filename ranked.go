package medhist

// Ranked answers order-statistic queries. Histogram answers them by walking
// its entries and stays mutable; Snapshot answers them from a frozen
// rank/select index.
type Ranked[V any] interface {
	// Quantile returns the (k+1)-th smallest value.
	Quantile(k uint64) (V, bool)

	// Median returns the lower-middle value.
	Median() (V, bool)
}

var (
	_ Ranked[int] = (*Histogram[int])(nil)
	_ Ranked[int] = (*Snapshot[int])(nil)
)
