/*
refine trims the raw surroundings of a sugar to binding sites of a
sensible size and numbers them.

Usage:
 refine [options] SUGAR

Flags:
  -c file
	YAML configuration. Without it, the directories must come from
	SUGARCLUST_RESULTS_DIR and SUGARCLUST_DATA_DIR.
  -min N
	Sites with fewer protein residues than this are dropped. The
	default comes from the configuration.
  -max N
	Sites with more residues are trimmed to the N closest to the
	sugar.
  -r N
	Read N files at once. Default 3.

Refined sites go to filtered_surroundings in the run directory, named
{identity}_{structure}_{SUGAR}_{resnum}_{chain}.pdb, and the identities
are written to clusters/{SUGAR}_structures_keys.json.
Files that could not be read are logged and skipped, but the exit
status is then non-zero.
*/
package main
