// Package mmcif reads tables from files in mmcif/cif format.
//
// We only want a few categories from a file. For binding sites this is
// _atom_site. For a chemical component (the free ligand from the
// component dictionary) it is _chem_comp_atom. The caller says which
// categories it wants and gets back a Table for each one that was found.
//
// Notes about the format, from
// https://www.iucr.org/resources/cif/spec/version1.1/cifsyntax
//  - A question mark, ?, means a missing value.
//  - A dot, ., means not appropriate or deliberately left out.
//  - Values can be quoted with ' or ". A quote only closes a value if it
//    is followed by white space, so O5' is a legal unquoted atom name
//    and "O5'" is the same name quoted.
//  - A line starting with ; starts a text field that runs until the next
//    line starting with ;.
//  - A category written without loop_ has one row. We return it as a
//    table with one row, so callers do not care.
package mmcif
