package pdb

import "io"

func FmtFromName(fname string) Format        { return fmtFromName(fname) }
func LookInFile(r io.Reader) (Format, error) { return lookInFile(r) }
