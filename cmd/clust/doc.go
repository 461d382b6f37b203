/*
clust does hierarchical clustering on the RMSD matrices of a sugar.

Usage:
 clust [options] SUGAR

Flags:
  -a	Cluster the align matrix as well as super.
  -c file
	YAML configuration.
  -d	Draw a dendrogram for each matrix.
  -f	Cluster even if some pairs failed when the matrices were built.
  -k N
	Number of clusters, default 10.
  -m method
	ward, average, centroid, single, complete, weighted or median.
	Default average.
  -t x
	Colour threshold for the dendrograms. Default 0.7 of the
	highest merge.
  -x strategy
	Copy the representatives of this clustering to
	input_representatives for the motif search.

For each matrix this writes, in clusters/{strategy},
 {k}_{method}_all_clusters.json
 {k}_{method}_cluster_representatives.json
 {k}_{method}_average_rmsds.csv
 {k}_{method}_linkage.tsv
 {k}_{method}.nwk
Tied merge heights can give fewer than k clusters. This is logged, not
an error.
*/
package main
