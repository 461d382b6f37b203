/*
cmpclust compares the super and align clusterings of a sugar.

Usage:
 cmpclust [options] SUGAR

Flags:
  -c file
	YAML configuration.
  -k N
  -m method
	Which clustering, as given to clust. Defaults 10 and average.
  -t	Draw a tanglegram of the two trees.

For every cluster of one clustering, it reports which clusters of the
other its members went to, then counts leaves that moved between the two
dendrograms. The report is clusters/{k}_{method}_comparison.json.
If the two clusterings do not contain the same sites, nothing is
written and the exit status is non-zero.
*/
package main
