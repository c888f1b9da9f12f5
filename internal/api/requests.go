// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

// Request bodies for the POST endpoints. Zero values mean "use the
// configured default"; the validate tags only constrain values the
// caller actually supplied (omitempty).

// IngestRequest names a server-side CSV to load. DuckDB reads the file
// directly, so the path must be visible to the server process.
type IngestRequest struct {
	Path string `json:"path" validate:"required"`
}

// CleanRequest controls the dataset hygiene audit.
type CleanRequest struct {
	MinRatingsPerItem int  `json:"min_ratings_per_item" validate:"omitempty,min=0,max=1000"`
	DropUnknownMovies bool `json:"drop_unknown_movies"`
}

// MineRulesRequest parameterizes an association rule run.
type MineRulesRequest struct {
	// Transactions selects the basket shape: "liked" groups each
	// user's liked movies, "genres" treats each movie's genre list as
	// one basket.
	Transactions   string  `json:"transactions" validate:"omitempty,oneof=liked genres"`
	MinSupport     float64 `json:"min_support" validate:"omitempty,gt=0,lte=1"`
	MinConfidence  float64 `json:"min_confidence" validate:"omitempty,gte=0,lte=1"`
	MinLift        float64 `json:"min_lift" validate:"omitempty,gte=0"`
	MaxLen         int     `json:"max_len" validate:"omitempty,min=1,max=10"`
	LikedThreshold float64 `json:"liked_threshold" validate:"omitempty,gte=0.5,lte=5"`
	// Limit caps the rules returned in the response body. The full
	// counts are always reported.
	Limit int `json:"limit" validate:"omitempty,min=1,max=500"`
}

// ClusterRequest parameterizes a k-means run over movie features.
type ClusterRequest struct {
	K             int     `json:"k" validate:"omitempty,min=2,max=100"`
	MaxIterations int     `json:"max_iterations" validate:"omitempty,min=1,max=1000"`
	Tolerance     float64 `json:"tolerance" validate:"omitempty,gte=0"`
	Seed          int64   `json:"seed"`

	// Standardize z-scores the feature columns first. Defaults to
	// true; raw features let num_ratings dominate every distance.
	Standardize *bool `json:"standardize"`

	// Silhouette computes the silhouette coefficient, which is
	// quadratic in the catalog size. Defaults to true.
	Silhouette *bool `json:"silhouette"`

	// SampleTitles is how many example titles to return per cluster.
	SampleTitles int `json:"sample_titles" validate:"omitempty,min=0,max=20"`
}

// RegressRequest parameterizes an OLS run over movie features.
type RegressRequest struct {
	// Target is the column to predict; the remaining feature columns
	// become the regressors.
	Target       string  `json:"target" validate:"omitempty,oneof=mean_rating num_ratings"`
	TestFraction float64 `json:"test_fraction" validate:"omitempty,gt=0,lt=1"`
	Seed         int64   `json:"seed"`
}

// ClassifyRequest parameterizes a supervised classification run.
type ClassifyRequest struct {
	Classifier string `json:"classifier" validate:"omitempty,oneof=knn naive_bayes"`

	// Target selects the label: "liked" is the liked/disliked split at
	// LikedThreshold, "primary_genre" is each movie's first genre.
	Target string `json:"target" validate:"omitempty,oneof=liked primary_genre"`

	K              int     `json:"k" validate:"omitempty,min=1,max=100"`
	Metric         string  `json:"metric" validate:"omitempty,oneof=euclidean manhattan cosine"`
	LikedThreshold float64 `json:"liked_threshold" validate:"omitempty,gte=0.5,lte=5"`
	TestFraction   float64 `json:"test_fraction" validate:"omitempty,gt=0,lt=1"`
	Seed           int64   `json:"seed"`
}

// EvaluateRequest parameterizes a ranking metrics run: train the named
// algorithm on a holdout split and score the withheld interactions.
type EvaluateRequest struct {
	Algorithm    string  `json:"algorithm" validate:"omitempty,oneof=als item_knn user_knn"`
	K            int     `json:"k" validate:"omitempty,min=1,max=100"`
	TestFraction float64 `json:"test_fraction" validate:"omitempty,gt=0,lt=1"`
	Seed         int64   `json:"seed"`
}

// GridSearchRequest parameterizes a cross-validated parameter search.
type GridSearchRequest struct {
	Algorithm string `json:"algorithm" validate:"omitempty,oneof=als item_knn user_knn"`

	// Grid maps parameter names to candidate values; the cartesian
	// product is searched. ALS accepts factors, lambda, alpha and
	// iterations; the KNN variants accept neighbors, shrinkage,
	// min_common and min_similarity.
	Grid map[string][]float64 `json:"grid" validate:"required,min=1"`

	Folds int   `json:"folds" validate:"omitempty,min=2,max=10"`
	K     int   `json:"k" validate:"omitempty,min=1,max=100"`
	Seed  int64 `json:"seed"`
}

// CreateRatingRequest submits one rating event.
type CreateRatingRequest struct {
	UserID  int64   `json:"user_id" validate:"required,gt=0"`
	MovieID int64   `json:"movie_id" validate:"required,gt=0"`
	Rating  float64 `json:"rating" validate:"required,gte=0.5,lte=5"`
}
