package daf

import "strings"

// commentChars is the number of characters NAIF writes per comment record.
const commentChars = 1000

// Comments returns the text of the comment area, which occupies records
// 2 through Forward-1. NUL bytes are line separators; EOT ends the text.
func (f *File) Comments() (string, error) {
	var sb strings.Builder
	for n := 2; n < f.Header.Forward; n++ {
		rec, err := f.Record(n)
		if err != nil {
			return "", err
		}
		for _, c := range rec[:commentChars] {
			switch c {
			case 0x04:
				return strings.TrimRight(sb.String(), "\n"), nil
			case 0x00:
				sb.WriteByte('\n')
			default:
				sb.WriteByte(c)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
