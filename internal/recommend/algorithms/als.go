// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/sparse"
)

// ALS implements Alternating Least Squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets"
// (Hu, Koren, Volinsky, 2008)
//
// The algorithm factorizes the user-item interaction matrix into user and
// item latent factor matrices. Ratings are treated as implicit preference
// signals: every observed interaction is a positive preference (p_ui = 1)
// whose confidence grows with the rating.
//
// The objective function minimizes:
// sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where c_ui = 1 + alpha * r_ui is the confidence.
type ALS struct {
	BaseAlgorithm
	config recommend.ALSParams
	seed   int64

	// NumWorkers bounds the parallelism of the factor updates.
	workers int

	// users and items map external IDs to matrix positions.
	users *sparse.Index
	items *sparse.Index

	// X is the user factor matrix (numUsers x factors)
	X [][]float64

	// Y is the item factor matrix (numItems x factors)
	Y [][]float64

	// seen holds the item positions each user interacted with, so
	// Predict never recommends something already rated.
	seen []map[int]struct{}
}

// NewALS creates a new ALS algorithm with the given parameters.
// Invalid parameters are replaced with defaults.
func NewALS(cfg recommend.ALSParams, seed int64) *ALS {
	if cfg.Factors <= 0 {
		cfg.Factors = 64
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 15
	}
	if cfg.Lambda <= 0 {
		cfg.Lambda = 0.1
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 40.0
	}
	if seed == 0 {
		seed = 42
	}

	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		config:        cfg,
		seed:          seed,
		workers:       runtime.NumCPU(),
	}
}

// Train fits the ALS model using alternating optimization.
//
//nolint:gocyclo,gocritic // gocyclo: ML training algorithms are inherently complex; gocritic: rangeValCopy is acceptable for clarity
func (a *ALS) Train(ctx context.Context, interactions []recommend.Interaction) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Build user and item indices, keeping only interactions that
	// carry a positive preference signal.
	users := sparse.NewIndex()
	items := sparse.NewIndex()
	for _, inter := range interactions {
		if inter.PreferenceWeight() <= 0 {
			continue
		}
		users.Add(inter.UserID)
		items.Add(inter.ItemID)
	}

	numUsers := users.Len()
	numItems := items.Len()
	numFactors := a.config.Factors

	if numUsers == 0 || numItems == 0 {
		a.users = users
		a.items = items
		a.X = nil
		a.Y = nil
		a.seen = nil
		a.markTrained()
		return nil
	}

	// The matrix stores c_ui - 1 = alpha * r_ui. Duplicate entries sum,
	// which stacks their confidence.
	coo := sparse.NewCOO(numUsers, numItems)
	for _, inter := range interactions {
		weight := inter.PreferenceWeight()
		if weight <= 0 {
			continue
		}
		u, _ := users.Pos(inter.UserID)
		i, _ := items.Pos(inter.ItemID)
		coo.Add(u, i, a.config.Alpha*weight)
	}

	ratings := coo.ToCSR()
	ratingsT := ratings.Transpose()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Initialize factor matrices with small random values.
	rng := rand.New(rand.NewSource(a.seed)) //nolint:gosec // G404: math/rand is acceptable for factor initialization (not security)

	X := make([][]float64, numUsers)
	for u := range X {
		X[u] = make([]float64, numFactors)
		for f := range X[u] {
			X[u][f] = (rng.Float64() - 0.5) * 0.01
		}
	}

	Y := make([][]float64, numItems)
	for i := range Y {
		Y[i] = make([]float64, numFactors)
		for f := range Y[i] {
			Y[i][f] = (rng.Float64() - 0.5) * 0.01
		}
	}

	// Alternating optimization
	lambda := a.config.Lambda

	for iter := 0; iter < a.config.Iterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Update user factors (fix Y, solve for X)
		a.updateFactors(ratings, X, Y, numFactors, lambda)

		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Update item factors (fix X, solve for Y)
		a.updateFactors(ratingsT, Y, X, numFactors, lambda)
	}

	// Record seen items per user for prediction-time filtering.
	seen := make([]map[int]struct{}, numUsers)
	for u := 0; u < numUsers; u++ {
		cols, _ := ratings.Row(u)
		set := make(map[int]struct{}, len(cols))
		for _, i := range cols {
			set[i] = struct{}{}
		}
		seen[u] = set
	}

	a.users = users
	a.items = items
	a.X = X
	a.Y = Y
	a.seen = seen
	a.markTrained()
	return nil
}

// updateFactors recomputes one side of the factorization while the
// other side stays fixed. rows holds the interactions from the side
// being updated (users when updating X, items when updating Y).
//
//nolint:gocritic // target, fixed follow standard linear algebra roles
func (a *ALS) updateFactors(rows *sparse.CSR, target, fixed [][]float64, numFactors int, lambda float64) {
	// Precompute F'F over the fixed side.
	FtF := make([][]float64, numFactors)
	for f := range FtF {
		FtF[f] = make([]float64, numFactors)
	}
	for i := range fixed {
		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				FtF[f1][f2] += fixed[i][f1] * fixed[i][f2]
				if f1 != f2 {
					FtF[f2][f1] = FtF[f1][f2]
				}
			}
		}
	}

	n := rows.Rows()
	var wg sync.WaitGroup
	chunkSize := (n + a.workers - 1) / a.workers

	for w := 0; w < a.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()

			for r := rStart; r < rEnd; r++ {
				cols, vals := rows.Row(r)
				target[r] = a.solveSingleRow(cols, vals, fixed, FtF, numFactors, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveSingleRow solves the regularized least squares problem for one
// user or item.
//
//nolint:gocritic // A, FtF follow standard linear algebra notation
func (a *ALS) solveSingleRow(cols []int, vals []float64, fixed [][]float64, FtF [][]float64, numFactors int, lambda float64) []float64 {
	// A = F' * C * F + lambda * I
	// b = F' * C * p
	// x = A^(-1) * b

	// Start with F'F + lambda*I
	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
		copy(A[f], FtF[f])
		A[f][f] += lambda
	}

	// Add confidence-weighted contributions. vals holds c - 1, so the
	// rank-1 updates use it directly and b uses the full confidence.
	b := make([]float64, numFactors)
	for idx, i := range cols {
		cMinus1 := vals[idx]
		conf := 1.0 + cMinus1
		y := fixed[i]

		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				delta := cMinus1 * y[f1] * y[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += conf * y[f1]
		}
	}

	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// Add regularization if not positive definite
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				if L[j][j] != 0 {
					L[i][j] = sum / L[j][j]
				}
			}
		}
	}

	// Solve L * z = b (forward substitution)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Solve L' * x = z (back substitution)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// Predict returns the top k items for a user, ranked by the dot
// product of the user and item factor vectors. Items the user already
// rated and items in the exclude set are skipped.
func (a *ALS) Predict(_ context.Context, userID int64, k int, exclude map[int64]struct{}) ([]recommend.ScoredID, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained || len(a.X) == 0 || len(a.Y) == 0 {
		return nil, nil
	}

	u, ok := a.users.Pos(userID)
	if !ok {
		return nil, nil
	}

	userVec := a.X[u]
	seen := a.seen[u]
	scores := make(map[int64]float64, len(a.Y))

	for i := range a.Y {
		if _, rated := seen[i]; rated {
			continue
		}

		itemID, _ := a.items.ID(i)
		if _, skip := exclude[itemID]; skip {
			continue
		}

		// score = x_u' * y_i
		var score float64
		itemVec := a.Y[i]
		for f := range userVec {
			score += userVec[f] * itemVec[f]
		}
		scores[itemID] = score
	}

	return rankScores(normalizeScores(scores), k), nil
}

// PredictSimilar returns the k items most similar to the given item by
// cosine similarity of the item factor vectors.
func (a *ALS) PredictSimilar(_ context.Context, itemID int64, k int) ([]recommend.ScoredID, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained || len(a.Y) == 0 {
		return nil, nil
	}

	source, ok := a.items.Pos(itemID)
	if !ok {
		return nil, nil
	}

	sourceVec := a.Y[source]
	scores := make(map[int64]float64, len(a.Y))

	for i := range a.Y {
		if i == source {
			continue
		}

		score := cosineSimilarity(sourceVec, a.Y[i])
		if score > 0 {
			id, _ := a.items.ID(i)
			scores[id] = score
		}
	}

	return rankScores(normalizeScores(scores), k), nil
}

// ALSState is a serializable snapshot of a trained ALS model.
type ALSState struct {
	Users       []int64
	Items       []int64
	UserFactors [][]float64
	ItemFactors [][]float64

	// SeenItems holds, per user position, the item positions that user
	// interacted with during training.
	SeenItems [][]int

	Version   int
	TrainedAt time.Time
}

// ExportState returns a snapshot of the trained model for persistence.
func (a *ALS) ExportState() (*ALSState, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, fmt.Errorf("als: model not trained")
	}

	seen := make([][]int, len(a.seen))
	for u, set := range a.seen {
		positions := make([]int, 0, len(set))
		for i := range set {
			positions = append(positions, i)
		}
		seen[u] = positions
	}

	return &ALSState{
		Users:       a.users.IDs(),
		Items:       a.items.IDs(),
		UserFactors: a.X,
		ItemFactors: a.Y,
		SeenItems:   seen,
		Version:     a.version,
		TrainedAt:   a.lastTrainedAt,
	}, nil
}

// RestoreState loads a previously exported model snapshot.
func (a *ALS) RestoreState(state *ALSState) error {
	if state == nil {
		return fmt.Errorf("als: nil state")
	}
	if len(state.Users) != len(state.UserFactors) {
		return fmt.Errorf("als: user factor count %d does not match user count %d", len(state.UserFactors), len(state.Users))
	}
	if len(state.Items) != len(state.ItemFactors) {
		return fmt.Errorf("als: item factor count %d does not match item count %d", len(state.ItemFactors), len(state.Items))
	}
	if len(state.SeenItems) != len(state.Users) {
		return fmt.Errorf("als: seen item count %d does not match user count %d", len(state.SeenItems), len(state.Users))
	}

	users := sparse.NewIndexWithCapacity(len(state.Users))
	for _, id := range state.Users {
		users.Add(id)
	}
	items := sparse.NewIndexWithCapacity(len(state.Items))
	for _, id := range state.Items {
		items.Add(id)
	}

	seen := make([]map[int]struct{}, len(state.SeenItems))
	for u, positions := range state.SeenItems {
		set := make(map[int]struct{}, len(positions))
		for _, i := range positions {
			set[i] = struct{}{}
		}
		seen[u] = set
	}

	a.acquireTrainLock()
	defer a.releaseTrainLock()

	a.users = users
	a.items = items
	a.X = state.UserFactors
	a.Y = state.ItemFactors
	a.seen = seen
	a.trained = true
	a.version = state.Version
	a.lastTrainedAt = state.TrainedAt
	return nil
}
