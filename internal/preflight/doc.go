// Package preflight provides readiness checks for the filesystem paths and
// upstream sources heatmap depends on.
//
// These checks run in two contexts:
//   - The daemon calls CheckDirectoryAccess on the data directory before it
//     takes the instance lock, so a read-only volume fails at startup rather
//     than on the first write.
//   - The CLI "heatmap status" command runs RunAll to display source health
//     next to the daemon report.
package preflight
