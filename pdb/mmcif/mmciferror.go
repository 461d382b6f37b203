// An error implementation that saves the line number and the
// line we were trying to read.
// The key is to call xxxx.fill() where xxxx is the comment scanner or
// the reader which contains it.
package mmcif

import (
	"strconv"
)

const maxMsgLen = 70

type readError struct {
	n      int    // line number
	inline string // The line that provoked the error
	desc   string // Description of error
}

// fill stores the problem we have seen for printing out when it is
// convenient. If there was already an error, we have missed it, so it
// goes into the message as well.
func (m *cmmtScanner) fill(desc string, saveLine bool) {
	const multErrStr string = "\nNew error, but there was already an error from line "
	if !m.Ok {
		ln := strconv.Itoa(m.l_err.n)
		desc = m.l_err.desc + multErrStr + ln + ":\n" + desc
	}
	m.Ok = false
	if saveLine {
		m.l_err.n = m.n
		m.l_err.inline = string(m.ctoken)
	}
	m.l_err.desc = desc
}

func firstPart(s string) string {
	l := len(s)
	if l > maxMsgLen {
		l = maxMsgLen
	}
	return s[:l]
}

// Error takes what is known about the state and causes and returns a
// single string. This should include the number of the last line read
// and any description of the error we have.
func (e readError) Error() string {
	var errmsg string
	if e.n != 0 {
		errmsg = "Line: " + strconv.Itoa(e.n) + " "
	}
	errmsg += e.desc
	if e.n != 0 && e.inline != "" {
		errmsg += "\nLine starting with\n" + firstPart(e.inline)
	}
	return errmsg
}
