/*
allpairs superposes every pair of refined binding sites of a sugar and
writes the RMSD matrices.

Usage:
 allpairs [options] SUGAR

Flags:
  -a	Also pair residues by sequence alignment, as well as by
	position. This gives a second matrix.
  -c file
	YAML configuration.
  -r file
	Reference ligand. Without this, the component dictionary entry
	for SUGAR is downloaded, unless it is already in the sugars
	directory.

Each site is first put on the reference ligand, then the protein atoms
of the two sites are fitted. Matrices go to
clusters/{strategy}/{SUGAR}_all_pairs_rmsd_{strategy}.npy with a csv of
the pairs next to them.
Pairs that fail are listed in clusters/something_wrong.json and the exit
status is non-zero. Interrupting the program stops it between pairs.
*/
package main
