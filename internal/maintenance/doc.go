// Package maintenance runs the periodic staleness sweep over every stored
// show. Each cycle refreshes show metadata that is past the show staleness
// window and retries unrated episodes that are due for a check. A failure on
// one show is logged and the sweep moves on to the next.
package maintenance
