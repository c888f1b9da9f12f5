// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package models defines data structures for the Lodestone application.

This package contains the data models shared across application layers:
database records, API request/response structures, and internal data
transfer objects. It serves as the single source of truth for data
structure definitions.

Model Categories:

1. Dataset Models:
  - Rating: A single user-movie rating (userId, movieId, rating, timestamp)
  - Movie: Movie metadata (movieId, title, year, genres)
  - CleanReport: Summary of a dataset cleaning pass
  - DatasetStats: Descriptive statistics for an ingested dataset

2. Analysis Models:
  - AnalysisRun: Persisted record of a mining/learning/clustering run
  - ScrapedMovie: A row extracted by the web scraper

3. API Request/Response Models:
  - APIResponse: Standard response wrapper
  - APIError: Error details
  - Metadata: Response metadata (timestamp, query time)
  - PaginationInfo: Cursor pagination metadata

4. Access Control Models:
  - Role constants (viewer, analyst, admin) aligned with the Casbin policy
  - UserRole: Persistent role assignment

Algorithm-internal structures (frequent itemsets, centroids, factor
matrices) live in their owning packages; only types that cross package
boundaries belong here.
*/
package models
