package proxy

import "github.com/CyberGRX/neobolt/internal/routing"

// modeMarker is the byte pattern a Bolt client embeds in a BEGIN or RUN
// message's "extra" map when it opens an explicit read transaction:
// a tiny-string key "mode" (0x84 'm' 'o' 'd' 'e') followed by the tiny-string
// value "r" (0x81 'r'). Anything else -- including its absence -- defaults
// to WriteMode, matching the driver's own default.
var modeMarker = []byte{0x84, 'm', 'o', 'd', 'e', 0x81, 'r'}

// DetectMode does a best-effort scan of a raw client message for the
// read-mode marker rather than a full structural decode: BEGIN/RUN's extra
// map can appear at varying offsets depending on statement/parameter length,
// and all this needs to know is whether "mode":"r" is present anywhere in
// the frame.
func DetectMode(buf []byte) routing.Mode {
	if containsBytes(buf, modeMarker) {
		return routing.ReadMode
	}
	return routing.WriteMode
}

func containsBytes(haystack, needle []byte) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
