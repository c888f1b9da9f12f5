// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/cluster"
	"github.com/tomtom215/lodestone/internal/learn"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
	"github.com/tomtom215/lodestone/internal/mining"
	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/regress"
)

// analysisTimeout bounds a single synchronous analysis request.
const analysisTimeout = 2 * time.Minute

const (
	defaultLikedThreshold = 3.5
	defaultRuleLimit      = 50
	defaultSampleTitles   = 5
	defaultTestFraction   = 0.2
	defaultSplitSeed      = 42
)

// likedThreshold returns the configured liked-rating cutoff.
func (h *Handler) likedThreshold() float64 {
	if h.config != nil && h.config.Dataset.LikedThreshold > 0 {
		return h.config.Dataset.LikedThreshold
	}
	return defaultLikedThreshold
}

// startAnalysis records the run row for an analysis request. The params
// value is stored as JSON so past runs stay reproducible.
func (h *Handler) startAnalysis(ctx context.Context, w http.ResponseWriter, kind string, params interface{}) (string, bool) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode analysis parameters", err)
		return "", false
	}
	run, err := h.db.StartAnalysisRun(ctx, kind, string(paramsJSON))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record analysis run", err)
		return "", false
	}
	return run.ID, true
}

// failAnalysis closes the run as failed, records metrics, and sends the
// error response.
func (h *Handler) failAnalysis(ctx context.Context, w http.ResponseWriter, runID, kind string, start time.Time, status int, code, message string, err error) {
	if runID != "" {
		if dbErr := h.db.FailAnalysisRun(ctx, runID, err.Error()); dbErr != nil {
			logging.Ctx(ctx).Warn().Err(dbErr).Str("run_id", runID).Msg("Failed to record analysis failure")
		}
	}
	metrics.RecordAnalysis(kind, time.Since(start), err)
	respondError(w, status, code, message, err)
}

// completeAnalysis closes the run as completed with the result document
// and notifies WebSocket subscribers. Bookkeeping failures are logged
// rather than surfaced; the analysis itself succeeded.
func (h *Handler) completeAnalysis(ctx context.Context, runID, kind string, result interface{}, start time.Time) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("run_id", runID).Msg("Failed to encode analysis result")
		resultJSON = []byte("{}")
	}
	if err := h.db.CompleteAnalysisRun(ctx, runID, string(resultJSON)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("run_id", runID).Msg("Failed to record analysis completion")
	}
	metrics.RecordAnalysis(kind, time.Since(start), nil)
	if h.wsHub != nil {
		h.wsHub.BroadcastAnalysisCompleted(kind, runID, time.Since(start).Milliseconds())
	}
}

// splitIndices shuffles 0..n-1 with the seed and cuts a holdout of
// roughly testFraction, keeping at least one sample on each side.
func splitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(float64(n) * testFraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	return perm[cut:], perm[:cut]
}

// MinedRule is an association rule with item IDs resolved to labels.
type MinedRule struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// RulesResult is the association mining analysis payload.
type RulesResult struct {
	RunID        string      `json:"run_id"`
	Transactions string      `json:"transactions"`
	TxnCount     int         `json:"transaction_count"`
	ItemsetCount int         `json:"itemset_count"`
	RuleCount    int         `json:"rule_count"`
	Rules        []MinedRule `json:"rules"`
}

// MineRules godoc
// @Summary Mine association rules
// @Description Runs Apriori over liked-movie baskets or genre sets and returns rules ordered by lift
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body api.MineRulesRequest false "Mining parameters"
// @Success 200 {object} models.APIResponse{data=api.RulesResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses/rules [post]
func (h *Handler) MineRules(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req MineRulesRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Transactions == "" {
		req.Transactions = "liked"
	}
	cfg := mining.DefaultConfig()
	if req.MinSupport > 0 {
		cfg.MinSupport = req.MinSupport
	}
	if req.MinConfidence > 0 {
		cfg.MinConfidence = req.MinConfidence
	}
	if req.MinLift > 0 {
		cfg.MinLift = req.MinLift
	}
	if req.MaxLen > 0 {
		cfg.MaxLen = req.MaxLen
	}
	if req.LikedThreshold == 0 {
		req.LikedThreshold = h.likedThreshold()
	}
	if req.Limit == 0 {
		req.Limit = defaultRuleLimit
	}
	req.MinSupport = cfg.MinSupport
	req.MinConfidence = cfg.MinConfidence
	req.MinLift = cfg.MinLift
	req.MaxLen = cfg.MaxLen

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisRules, req)
	if !ok {
		return
	}

	var txns [][]int64
	var itemName func(int64) string

	switch req.Transactions {
	case "genres":
		movies, err := h.db.GetMovies(ctx)
		if err != nil {
			h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
				http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load movies", err)
			return
		}
		var names []string
		txns, names = mining.GenreTransactions(movies)
		itemName = func(id int64) string {
			if id >= 0 && int(id) < len(names) {
				return names[id]
			}
			return ""
		}
	default:
		ratings, err := h.db.GetRatings(ctx)
		if err != nil {
			h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
				http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load ratings", err)
			return
		}
		movies, err := h.db.GetMovies(ctx)
		if err != nil {
			h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
				http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load movies", err)
			return
		}
		titles := make(map[int64]string, len(movies))
		for _, m := range movies {
			titles[m.MovieID] = m.Title
		}
		txns = mining.LikedTransactions(ratings, req.LikedThreshold)
		itemName = func(id int64) string { return titles[id] }
	}

	if len(txns) == 0 {
		h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "No transactions to mine; ingest a dataset first",
			errors.New("empty transaction set"))
		return
	}

	miner, err := mining.NewMiner(cfg)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
			http.StatusBadRequest, "INVALID_PARAMETERS", "Invalid mining parameters", err)
		return
	}

	itemsets, rules, err := miner.Mine(ctx, txns)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRules, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Association mining failed", err)
		return
	}

	// Rules arrive ordered by lift, so truncation keeps the strongest.
	total := len(rules)
	if len(rules) > req.Limit {
		rules = rules[:req.Limit]
	}

	result := &RulesResult{
		RunID:        runID,
		Transactions: req.Transactions,
		TxnCount:     len(txns),
		ItemsetCount: len(itemsets),
		RuleCount:    total,
		Rules:        make([]MinedRule, 0, len(rules)),
	}
	for _, rule := range rules {
		result.Rules = append(result.Rules, MinedRule{
			Antecedent: resolveItems(rule.Antecedent, itemName),
			Consequent: resolveItems(rule.Consequent, itemName),
			Support:    rule.Support,
			Confidence: rule.Confidence,
			Lift:       rule.Lift,
		})
	}

	h.completeAnalysis(ctx, runID, models.AnalysisRules, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}

// resolveItems maps item IDs to display labels, keeping the raw ID as
// a decimal string when no label exists.
func resolveItems(items []int64, name func(int64) string) []string {
	out := make([]string, len(items))
	for i, id := range items {
		if label := name(id); label != "" {
			out[i] = label
		} else {
			out[i] = strconv.FormatInt(id, 10)
		}
	}
	return out
}

// ClusterGroup summarizes one k-means cluster.
type ClusterGroup struct {
	Cluster      int      `json:"cluster"`
	Size         int      `json:"size"`
	SampleTitles []string `json:"sample_titles,omitempty"`
}

// ClusterResult is the clustering analysis payload.
type ClusterResult struct {
	RunID      string         `json:"run_id"`
	K          int            `json:"k"`
	Movies     int            `json:"movies"`
	Iterations int            `json:"iterations"`
	Inertia    float64        `json:"inertia"`
	Silhouette *float64       `json:"silhouette,omitempty"`
	Clusters   []ClusterGroup `json:"clusters"`
}

// ClusterMovies godoc
// @Summary Cluster the movie catalog
// @Description Runs k-means over movie feature vectors and summarizes each cluster
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body api.ClusterRequest false "Clustering parameters"
// @Success 200 {object} models.APIResponse{data=api.ClusterResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses/cluster [post]
func (h *Handler) ClusterMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ClusterRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	cfg := cluster.DefaultKMeansConfig()
	if req.K > 0 {
		cfg.K = req.K
	}
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.Tolerance > 0 {
		cfg.Tolerance = req.Tolerance
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	standardize := req.Standardize == nil || *req.Standardize
	wantSilhouette := req.Silhouette == nil || *req.Silhouette
	sampleTitles := req.SampleTitles
	if sampleTitles == 0 {
		sampleTitles = defaultSampleTitles
	}
	req.K = cfg.K
	req.MaxIterations = cfg.MaxIterations
	req.Tolerance = cfg.Tolerance
	req.Seed = cfg.Seed

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisCluster, req)
	if !ok {
		return
	}

	movies, ratings, err := h.loadCatalog(ctx)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisCluster, start,
			http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load dataset", err)
		return
	}
	if len(movies) < cfg.K {
		h.failAnalysis(ctx, w, runID, models.AnalysisCluster, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "Fewer movies than clusters; ingest a dataset first",
			errors.New("not enough movies to cluster"))
		return
	}

	fs := learn.MovieFeatures(movies, ratings)
	X := fs.X
	if standardize {
		X, _, _ = learn.Standardize(X)
	}

	km := cluster.NewKMeans(cfg)
	fit, err := km.Fit(ctx, X)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisCluster, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Clustering failed", err)
		return
	}

	groups := make([]ClusterGroup, cfg.K)
	for i := range groups {
		groups[i].Cluster = i
	}
	for i, c := range fit.Assignments {
		groups[c].Size++
		if len(groups[c].SampleTitles) < sampleTitles {
			groups[c].SampleTitles = append(groups[c].SampleTitles, movies[i].Title)
		}
	}
	sortClusterGroups(groups)

	result := &ClusterResult{
		RunID:      runID,
		K:          cfg.K,
		Movies:     len(movies),
		Iterations: fit.Iterations,
		Inertia:    fit.Inertia,
		Clusters:   groups,
	}
	if wantSilhouette {
		sil := cluster.Silhouette(X, fit.Assignments)
		result.Silhouette = &sil
	}

	h.completeAnalysis(ctx, runID, models.AnalysisCluster, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}

// loadCatalog fetches movies and ratings together for feature building.
func (h *Handler) loadCatalog(ctx context.Context) ([]models.Movie, []models.Rating, error) {
	movies, err := h.db.GetMovies(ctx)
	if err != nil {
		return nil, nil, err
	}
	ratings, err := h.db.GetRatings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return movies, ratings, nil
}

// Coefficient pairs a feature name with its fitted weight.
type Coefficient struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// RegressResult is the linear regression analysis payload.
type RegressResult struct {
	RunID        string                    `json:"run_id"`
	Target       string                    `json:"target"`
	TrainSize    int                       `json:"train_size"`
	TestSize     int                       `json:"test_size"`
	Intercept    float64                   `json:"intercept"`
	Coefficients []Coefficient             `json:"coefficients"`
	Report       *regress.RegressionReport `json:"report"`
}

// RegressRatings godoc
// @Summary Fit a linear regression on movie features
// @Description Fits ordinary least squares predicting mean rating or rating count from the remaining movie features, with a held-out test report
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body api.RegressRequest false "Regression parameters"
// @Success 200 {object} models.APIResponse{data=api.RegressResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses/regress [post]
func (h *Handler) RegressRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RegressRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Target == "" {
		req.Target = "mean_rating"
	}
	if req.TestFraction == 0 {
		req.TestFraction = defaultTestFraction
	}
	if req.Seed == 0 {
		req.Seed = defaultSplitSeed
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisRegress, req)
	if !ok {
		return
	}

	movies, ratings, err := h.loadCatalog(ctx)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRegress, start,
			http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load dataset", err)
		return
	}

	fs := learn.MovieFeatures(movies, ratings)

	// Only rated movies carry signal for the rating-derived targets.
	X, y, names := regressionDesign(fs, req.Target)
	if len(X) < 4 {
		h.failAnalysis(ctx, w, runID, models.AnalysisRegress, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "Too few rated movies to fit a regression",
			errors.New("not enough rated movies"))
		return
	}

	trainIdx, testIdx := splitIndices(len(X), req.TestFraction, req.Seed)
	trainX, trainY := gatherRows(X, y, trainIdx)
	testX, testY := gatherRows(X, y, testIdx)

	ols := regress.NewOLS()
	if err := ols.Fit(trainX, trainY); err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRegress, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Regression fit failed", err)
		return
	}
	predicted, err := ols.Predict(testX)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRegress, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Regression prediction failed", err)
		return
	}
	report, err := regress.EvaluateRegression(predicted, testY)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisRegress, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Regression evaluation failed", err)
		return
	}

	coeffs := ols.Coefficients()
	result := &RegressResult{
		RunID:        runID,
		Target:       req.Target,
		TrainSize:    len(trainX),
		TestSize:     len(testX),
		Intercept:    ols.Intercept(),
		Coefficients: make([]Coefficient, 0, len(coeffs)),
		Report:       report,
	}
	for i, c := range coeffs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		result.Coefficients = append(result.Coefficients, Coefficient{Feature: name, Weight: c})
	}

	h.completeAnalysis(ctx, runID, models.AnalysisRegress, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}

// regressionDesign builds the design matrix for a regression target,
// dropping the target column itself and unrated movies.
func regressionDesign(fs *learn.FeatureSet, target string) (X [][]float64, y []float64, names []string) {
	targetCol := -1
	for i, name := range fs.Names {
		if name == target {
			targetCol = i
			continue
		}
		names = append(names, name)
	}

	for i, row := range fs.X {
		if fs.RatingCounts[i] == 0 {
			continue
		}
		features := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j == targetCol {
				continue
			}
			features = append(features, v)
		}
		X = append(X, features)
		if targetCol >= 0 {
			y = append(y, row[targetCol])
		}
	}
	return X, y, names
}

// gatherRows selects rows of X and y by index.
func gatherRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}

// ClassifyResult is the classification analysis payload.
type ClassifyResult struct {
	RunID      string                     `json:"run_id"`
	Classifier string                     `json:"classifier"`
	Target     string                     `json:"target"`
	TrainSize  int                        `json:"train_size"`
	TestSize   int                        `json:"test_size"`
	Report     learn.ClassificationReport `json:"report"`
}

// ClassifyMovies godoc
// @Summary Classify movies with k-NN or naive Bayes
// @Description Trains a classifier on movie features and reports held-out accuracy, per-class metrics and the confusion matrix
// @Tags Analyses
// @Accept json
// @Produce json
// @Param request body api.ClassifyRequest false "Classification parameters"
// @Success 200 {object} models.APIResponse{data=api.ClassifyResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses/classify [post]
func (h *Handler) ClassifyMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ClassifyRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Classifier == "" {
		req.Classifier = "knn"
	}
	if req.Target == "" {
		req.Target = "liked"
	}
	if req.K == 0 {
		req.K = 5
	}
	if req.Metric == "" {
		req.Metric = string(learn.Euclidean)
	}
	if req.LikedThreshold == 0 {
		req.LikedThreshold = h.likedThreshold()
	}
	if req.TestFraction == 0 {
		req.TestFraction = defaultTestFraction
	}
	if req.Seed == 0 {
		req.Seed = defaultSplitSeed
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisClassify, req)
	if !ok {
		return
	}

	movies, ratings, err := h.loadCatalog(ctx)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisClassify, start,
			http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load dataset", err)
		return
	}

	fs := learn.MovieFeatures(movies, ratings)
	X, labels := classificationDesign(fs, req.Target, req.LikedThreshold)
	if len(X) < 4 {
		h.failAnalysis(ctx, w, runID, models.AnalysisClassify, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "Too few movies to classify",
			errors.New("not enough movies"))
		return
	}
	X, _, _ = learn.Standardize(X)

	trainIdx, testIdx := splitIndices(len(X), req.TestFraction, req.Seed)
	trainX := make([][]float64, len(trainIdx))
	trainLabels := make([]string, len(trainIdx))
	for i, j := range trainIdx {
		trainX[i] = X[j]
		trainLabels[i] = labels[j]
	}
	testX := make([][]float64, len(testIdx))
	testLabels := make([]string, len(testIdx))
	for i, j := range testIdx {
		testX[i] = X[j]
		testLabels[i] = labels[j]
	}

	var predicted []string
	var clsErr error
	switch req.Classifier {
	case "naive_bayes":
		nb := learn.NewGaussianNB()
		if clsErr = nb.Fit(trainX, trainLabels); clsErr == nil {
			predicted, clsErr = nb.Predict(ctx, testX)
		}
	default:
		knn := learn.NewKNNClassifier(req.K, learn.DistanceMetric(req.Metric))
		if clsErr = knn.Fit(trainX, trainLabels); clsErr == nil {
			predicted, clsErr = knn.Predict(ctx, testX)
		}
	}
	if clsErr != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisClassify, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Classification failed", clsErr)
		return
	}

	report, err := learn.EvaluateClassifier(predicted, testLabels)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisClassify, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Classifier evaluation failed", err)
		return
	}

	result := &ClassifyResult{
		RunID:      runID,
		Classifier: req.Classifier,
		Target:     req.Target,
		TrainSize:  len(trainX),
		TestSize:   len(testX),
		Report:     report,
	}

	h.completeAnalysis(ctx, runID, models.AnalysisClassify, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}

// classificationDesign picks feature columns that do not leak the
// target: rating-derived columns are dropped when predicting liked,
// genre columns when predicting the primary genre.
func classificationDesign(fs *learn.FeatureSet, target string, likedThreshold float64) ([][]float64, []string) {
	numGenres := len(fs.Names) - 3

	var keep func(col int) bool
	var labels []string
	switch target {
	case "primary_genre":
		keep = func(col int) bool { return col >= numGenres }
		labels = fs.PrimaryGenre
	default:
		keep = func(col int) bool { return col < numGenres+1 }
		labels = fs.LikedLabels(likedThreshold)
	}

	X := make([][]float64, len(fs.X))
	for i, row := range fs.X {
		features := make([]float64, 0, len(row))
		for j, v := range row {
			if keep(j) {
				features = append(features, v)
			}
		}
		X[i] = features
	}
	return X, labels
}

// AnalysisRunList is the run history payload.
type AnalysisRunList struct {
	Runs  []models.AnalysisRun `json:"runs"`
	Total int64                `json:"total"`
}

// ListAnalyses godoc
// @Summary List analysis runs
// @Description Returns recorded analysis runs newest first, optionally filtered by kind
// @Tags Analyses
// @Produce json
// @Param kind query string false "Filter by analysis kind" Enums(rules, classify, cluster, regress, evaluate, gridsearch)
// @Param limit query int false "Maximum runs to return" default(50)
// @Success 200 {object} models.APIResponse{data=api.AnalysisRunList}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses [get]
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	kind := r.URL.Query().Get("kind")
	if kind != "" && !models.IsValidAnalysisKind(kind) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETERS", "Unknown analysis kind", errors.New("unknown analysis kind "+kind))
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	runs, err := h.db.ListAnalysisRuns(ctx, kind, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list analysis runs", err)
		return
	}
	total, err := h.db.CountAnalysisRuns(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count analysis runs", err)
		return
	}

	respondSuccess(w, http.StatusOK, &AnalysisRunList{Runs: runs, Total: total}, start)
}

// GetAnalysis godoc
// @Summary Get one analysis run
// @Description Returns a recorded analysis run with its parameters and result document
// @Tags Analyses
// @Produce json
// @Param runID path string true "Analysis run ID"
// @Success 200 {object} models.APIResponse{data=models.AnalysisRun}
// @Failure 404 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /analyses/{runID} [get]
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	runID := chi.URLParam(r, "runID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	run, err := h.db.GetAnalysisRun(ctx, runID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load analysis run", err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Analysis run not found", errors.New("analysis run not found"))
		return
	}

	respondSuccess(w, http.StatusOK, run, start)
}

// sortClusterGroups orders groups by descending size for display.
func sortClusterGroups(groups []ClusterGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Size > groups[j].Size
	})
}
