// Package extract turns IMDb HTML pages into normalized records.
//
// Season pages go through a three-tier Pipeline: the embedded __NEXT_DATA__
// JSON blob, structural data-testid selectors, and finally a label scan over
// raw text nodes. Each tier reports whether its output is acceptable and the
// pipeline stops at the first tier that says yes. Tiers never return errors;
// malformed input simply yields nothing so the next tier can try.
//
// The package also extracts single-title ratings, the TV popularity chart, and
// the season selector from the episodes landing page.
package extract
