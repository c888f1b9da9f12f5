// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"context"
	"time"
)

// Interaction represents a single user-item rating event used for
// implicit-feedback training.
type Interaction struct {
	// UserID is the external user identifier.
	UserID int64 `json:"user_id"`

	// ItemID is the external item identifier (movieId).
	ItemID int64 `json:"item_id"`

	// Rating is the explicit star rating, typically 0.5-5.0.
	Rating float64 `json:"rating"`

	// Weight is an optional implicit preference override. When zero,
	// the rating itself is used as the preference signal.
	Weight float64 `json:"weight,omitempty"`

	// Timestamp is when the rating was given.
	Timestamp time.Time `json:"timestamp"`
}

// PreferenceWeight returns the implicit preference signal r fed into
// the confidence transform c = 1 + alpha*r.
func (i Interaction) PreferenceWeight() float64 {
	if i.Weight > 0 {
		return i.Weight
	}
	return i.Rating
}

// Item represents a recommendable item with display metadata.
type Item struct {
	// ID is the external item identifier (movieId).
	ID int64 `json:"id"`

	// Title is the item title, including the year suffix if present.
	Title string `json:"title"`

	// Genres is a slice of genre names.
	Genres []string `json:"genres,omitempty"`

	// Year is the release year, zero when unknown.
	Year int `json:"year,omitempty"`

	// MeanRating is the average rating across all users.
	MeanRating float64 `json:"mean_rating,omitempty"`

	// NumRatings is the number of ratings the item has received.
	NumRatings int `json:"num_ratings,omitempty"`

	// PopularityScore is a pre-computed popularity metric.
	PopularityScore float64 `json:"popularity_score,omitempty"`
}

// ScoredID pairs an item ID with a prediction score. Algorithms
// return ranked ScoredID slices; the engine attaches metadata.
type ScoredID struct {
	// ItemID is the external item identifier.
	ItemID int64 `json:"item_id"`

	// Score is the algorithm's prediction score, normalized to [0, 1].
	Score float64 `json:"score"`
}

// ScoredItem represents an item with a blended recommendation score.
type ScoredItem struct {
	// Item is the item metadata.
	Item Item `json:"item"`

	// Score is the combined recommendation score (0-1, higher is better).
	Score float64 `json:"score"`

	// Scores is a breakdown of scores by algorithm.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Reason provides an interpretable explanation for the recommendation.
	Reason string `json:"reason,omitempty"`
}

// Request represents a recommendation request.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID int64 `json:"user_id"`

	// K is the number of recommendations to return.
	// Defaults to Config.Limits.DefaultK if zero.
	K int `json:"k,omitempty"`

	// Exclude is a set of item IDs to exclude from recommendations.
	// Typically contains the user's rating history.
	Exclude map[int64]struct{} `json:"-"`

	// ExcludeIDs is the JSON-serializable version of Exclude.
	ExcludeIDs []int64 `json:"exclude_ids,omitempty"`

	// CurrentItemID is the item the user is currently viewing.
	// Used for "more like this" recommendations.
	CurrentItemID int64 `json:"current_item_id,omitempty"`

	// Mode specifies the recommendation mode.
	Mode RecommendMode `json:"mode,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// RecommendMode specifies the type of recommendations to generate.
type RecommendMode int

const (
	// ModePersonalized generates personalized recommendations.
	ModePersonalized RecommendMode = iota
	// ModeSimilar generates "more like this" recommendations.
	ModeSimilar
	// ModePopular returns popularity-ranked items.
	ModePopular
)

// String returns a human-readable mode name.
func (m RecommendMode) String() string {
	switch m {
	case ModePersonalized:
		return "personalized"
	case ModeSimilar:
		return "similar"
	case ModePopular:
		return "popular"
	default:
		return "unknown"
	}
}

// Response represents a recommendation response.
type Response struct {
	// Items is the ordered list of recommended items.
	Items []ScoredItem `json:"items"`

	// TotalCandidates is the number of candidate items considered.
	TotalCandidates int `json:"total_candidates"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID int64 `json:"user_id"`

	// Mode is the recommendation mode used.
	Mode string `json:"mode"`

	// AlgorithmsUsed lists the algorithms that contributed scores.
	AlgorithmsUsed []string `json:"algorithms_used"`

	// Fallback indicates the popularity fallback served this response.
	Fallback bool `json:"fallback,omitempty"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates whether the result was served from cache.
	CacheHit bool `json:"cache_hit"`

	// ModelVersion is the version of the trained model used.
	ModelVersion int `json:"model_version"`

	// TrainedAt is when the model was last trained.
	TrainedAt time.Time `json:"trained_at"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Algorithm defines the interface all recommendation algorithms must implement.
type Algorithm interface {
	// Name returns the algorithm identifier (e.g., "als", "item_knn").
	Name() string

	// Train fits the model on interaction data.
	Train(ctx context.Context, interactions []Interaction) error

	// Predict returns up to k scored items for a user, best first,
	// skipping anything in exclude. Scores are normalized to [0, 1].
	// An untrained model or unknown user yields (nil, nil).
	Predict(ctx context.Context, userID int64, k int, exclude map[int64]struct{}) ([]ScoredID, error)

	// PredictSimilar returns up to k items similar to the given item,
	// best first. An untrained model or unknown item yields (nil, nil).
	PredictSimilar(ctx context.Context, itemID int64, k int) ([]ScoredID, error)

	// IsTrained returns whether the model has been trained.
	IsTrained() bool

	// Version returns the model version (incremented on each train).
	Version() int

	// LastTrainedAt returns when the model was last trained.
	LastTrainedAt() time.Time
}

// Reranker modifies a ranked list for diversity or other objectives.
type Reranker interface {
	// Name returns the reranker identifier (e.g., "mmr").
	Name() string

	// Rerank reorders already-scored items to optimize a secondary
	// objective and returns up to k of them.
	Rerank(ctx context.Context, items []ScoredItem, k int) []ScoredItem
}

// TrainingStatus represents the current training state.
type TrainingStatus struct {
	// IsTraining indicates whether training is currently in progress.
	IsTraining bool `json:"is_training"`

	// Progress is the training progress (0-100).
	Progress int `json:"progress"`

	// CurrentAlgorithm is the algorithm currently being trained.
	CurrentAlgorithm string `json:"current_algorithm,omitempty"`

	// LastTrainedAt is when training last completed.
	LastTrainedAt time.Time `json:"last_trained_at"`

	// LastTrainingDurationMS is how long the last training took.
	LastTrainingDurationMS int64 `json:"last_training_duration_ms"`

	// LastError contains the last training error, if any.
	LastError string `json:"last_error,omitempty"`

	// InteractionCount is the number of interactions in the training set.
	InteractionCount int `json:"interaction_count"`

	// ItemCount is the number of unique items.
	ItemCount int `json:"item_count"`

	// UserCount is the number of unique users.
	UserCount int `json:"user_count"`

	// ModelVersion is the current model version.
	ModelVersion int `json:"model_version"`
}

// Metrics contains recommendation system metrics for observability.
type Metrics struct {
	// RequestCount is the total number of recommendation requests.
	RequestCount int64 `json:"request_count"`

	// CacheHits is the number of cache hits.
	CacheHits int64 `json:"cache_hits"`

	// CacheMisses is the number of cache misses.
	CacheMisses int64 `json:"cache_misses"`

	// FallbackCount is the number of responses served by the
	// popularity fallback.
	FallbackCount int64 `json:"fallback_count"`

	// TrainingCount is the number of training runs completed.
	TrainingCount int64 `json:"training_count"`

	// LastTrainingDurationMS is the duration of the last training.
	LastTrainingDurationMS int64 `json:"last_training_duration_ms"`

	// ErrorCount is the total number of errors.
	ErrorCount int64 `json:"error_count"`
}
