package mmcif

// SplitCifLine gives tests the words and whether each was quoted.
func SplitCifLine(b []byte) ([]string, []bool, error) {
	t, err := splitCifLine(b, nil)
	var s []string
	var q []bool
	for _, x := range t {
		s = append(s, x.s)
		q = append(q, x.quoted)
	}
	return s, q, err
}
