package evaluation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/core"
	"bookingeda/internal"
	"bookingeda/internal/errors"
)

// Clusterer assigns a cluster label to every row of x
type Clusterer interface {
	FitPredict(x mat.Matrix) ([]int, error)
}

// InertiaReporter is implemented by clusterers that expose the within-
// cluster sum of squares after fitting
type InertiaReporter interface {
	Inertia() float64
}

// KScore is the silhouette and inertia for one cluster count
type KScore struct {
	K          int     `json:"k"`
	Silhouette float64 `json:"silhouette"`
	// Inertia is NaN when the clusterer does not report it
	Inertia float64 `json:"inertia"`
}

// Silhouette is the mean silhouette coefficient over all rows using
// Euclidean distance. It is NaN when there are fewer than two clusters or
// as many clusters as rows. Rows alone in their cluster score 0.
func Silhouette(x mat.Matrix, labels []int) (float64, error) {
	n, _ := x.Dims()
	if n != len(labels) {
		return math.NaN(), errors.InvalidInputf(core.ErrLengthMismatch, "%d rows but %d labels", n, len(labels))
	}

	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 || len(sizes) > n-1 {
		return math.NaN(), nil
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	scores := make([]float64, n)
	sums := make(map[int]float64, len(sizes))
	for i := 0; i < n; i++ {
		if sizes[labels[i]] == 1 {
			continue
		}
		for l := range sums {
			delete(sums, l)
		}
		for j := 0; j < n; j++ {
			if i != j {
				sums[labels[j]] += floats.Distance(rows[i], rows[j], 2)
			}
		}

		a := sums[labels[i]] / float64(sizes[labels[i]]-1)
		b := math.Inf(1)
		for l, s := range sums {
			if l != labels[i] {
				b = math.Min(b, s/float64(sizes[l]))
			}
		}
		if d := math.Max(a, b); d > 0 {
			scores[i] = (b - a) / d
		}
	}
	return floats.Sum(scores) / float64(n), nil
}

// MaxConcurrentK bounds how many cluster counts SilhouetteByK scores at once
var MaxConcurrentK = int64(runtime.GOMAXPROCS(0))

// SilhouetteByK fits a fresh clusterer for every k and scores its labels.
// Cluster counts are scored concurrently; the factory is called from the
// caller's goroutine and each clusterer is used by one goroutine only.
func SilhouetteByK(ctx context.Context, x mat.Matrix, ks []int, factory func(k int) Clusterer) ([]KScore, error) {
	sem := semaphore.NewWeighted(MaxConcurrentK)
	out := make([]KScore, len(ks))
	errs := make([]error, len(ks))

	var wg sync.WaitGroup
	for i, k := range ks {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, errors.Wrap(err, "silhouette by k cancelled")
		}
		model := factory(k)
		wg.Add(1)
		go func(i, k int) {
			defer wg.Done()
			defer sem.Release(1)
			out[i], errs[i] = scoreK(x, k, model)
		}(i, k)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scoreK(x mat.Matrix, k int, model Clusterer) (KScore, error) {
	labels, err := model.FitPredict(x)
	if err != nil {
		return KScore{}, errors.Wrap(err, fmt.Sprintf("cluster with k=%d", k))
	}
	score, err := Silhouette(x, labels)
	if err != nil {
		return KScore{}, err
	}
	inertia := math.NaN()
	if r, ok := model.(InertiaReporter); ok {
		inertia = r.Inertia()
	}
	internal.DefaultLogger.With("evaluation").Debug("k=%d silhouette=%.4f inertia=%.4f", k, score, inertia)
	return KScore{K: k, Silhouette: score, Inertia: inertia}, nil
}
