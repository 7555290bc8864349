// Package imdb scrapes the IMDb catalog: season episode listings, single
// title ratings, the TV popularity chart, and the season selector.
//
// All requests go through the catalog-class throttle of a fetch.Doer. Season
// listings and the chart are cached only when non-empty; single ratings are
// cached with separate TTLs for hits and misses.
package imdb
