package decoder

// The WHATWG index maps gb2312 onto gbk, which accepts a much wider byte
// range. These checks restore the narrower legacy charsets.
var validators = map[string]func([]byte) bool{
	"gb2312":          validEUCCN,
	"csgb2312":        validEUCCN,
	"euc-cn":          validEUCCN,
	"x-euc-cn":        validEUCCN,
	"chinese":         validEUCCN,
	"iso-ir-58":       validEUCCN,
	"gb_2312":         validEUCCN,
	"gb_2312-80":      validEUCCN,
	"csiso58gb231280": validEUCCN,
}

// validEUCCN reports whether b only uses single ASCII bytes and
// lead/trail pairs inside the GB 2312 rows.
func validEUCCN(b []byte) bool {
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c < 0x80 {
			continue
		}
		if c < 0xA1 || c > 0xF7 || i+1 >= len(b) {
			return false
		}
		t := b[i+1]
		if t < 0xA1 || t > 0xFE {
			return false
		}
		i++
	}
	return true
}
